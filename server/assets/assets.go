// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package assets provides access to the application's embedded gettext
catalogues.

main assigns FS from its embed.FS. Tests may substitute an fstest.MapFS.
*/
package assets

import (
	"io/fs"
)

// FS provides access to the embedded file system.
var FS fs.FS
