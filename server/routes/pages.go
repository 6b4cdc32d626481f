// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"errors"
	"net/http"
	"strings"

	"codeberg.org/xeoos/xeo/core/forum"
	"codeberg.org/xeoos/xeo/i18n"
	"codeberg.org/xeoos/xeo/server/request_context"
	"codeberg.org/xeoos/xeo/server/utils"
)

var errUnknownLocale = errors.New("unknown locale in path")

// localeLink points at the current page in another locale.
type localeLink struct {
	Locale i18n.Locale `json:"locale"`
	Path   string      `json:"path"`
}

// PageData is what the client renders a localized page from.
type PageData struct {
	Locale      i18n.Locale      `json:"locale"`
	CurrentPath string           `json:"current_path"`
	Title       string           `json:"title"`
	Subtitle    string           `json:"subtitle,omitempty"`
	Locales     []localeLink     `json:"locales"`
	Posts       []forum.Post     `json:"posts,omitempty"`
	NextBefore  string           `json:"next_before,omitempty"`
	Thread      *forum.Thread    `json:"thread,omitempty"`
	Share       *forum.ShareMeta `json:"share,omitempty"`
}

// pageLocale returns the locale named by the first path segment.
func pageLocale(r *http.Request) (i18n.Locale, error) {
	l, ok := i18n.ParseLocale(utils.GetPathVar(r, "locale"))
	if !ok {
		return "", NotFound(errUnknownLocale)
	}

	return l, nil
}

func newPageData(r *http.Request, locale i18n.Locale) PageData {
	rest := i18n.StripLocale(r.URL.Path)
	if rest == "/" {
		rest = ""
	}

	links := make([]localeLink, 0, len(i18n.Locales()))
	for _, l := range i18n.Locales() {
		links = append(links, localeLink{Locale: l, Path: "/" + string(l) + rest})
	}

	return PageData{
		Locale:      locale,
		CurrentPath: request_context.FromRequest(r).CurrentPath,
		Locales:     links,
	}
}

// HomePage handles GET /{locale}: the latest posts of every topic.
func (api *API) HomePage(w http.ResponseWriter, r *http.Request) error {
	locale, err := pageLocale(r)
	if err != nil {
		return err
	}

	ctx := i18n.WithLocale(r.Context(), locale)

	opts, err := listOptions(r)
	if err != nil {
		return err
	}

	opts.Topic = ""

	posts, err := api.Forum.ListPosts(ctx, opts)
	if err != nil {
		return err
	}

	page := newPageData(r, locale)
	page.Title = i18n.Tr(ctx, "Latest posts")
	page.Subtitle = i18n.TrN(ctx, "{{.Count}} post", "{{.Count}} posts", len(posts), "Count", len(posts))

	list := newPostList(posts, opts.Limit)
	page.Posts, page.NextBefore = list.Posts, list.NextBefore

	writeJSON(w, http.StatusOK, page)

	return nil
}

// TopicPage handles GET /{locale}/topic/{topic}.
func (api *API) TopicPage(w http.ResponseWriter, r *http.Request) error {
	locale, err := pageLocale(r)
	if err != nil {
		return err
	}

	ctx := i18n.WithLocale(r.Context(), locale)

	opts, err := listOptions(r)
	if err != nil {
		return err
	}

	opts.Topic = strings.ToLower(utils.GetPathVar(r, "topic"))

	posts, err := api.Forum.ListPosts(ctx, opts)
	if err != nil {
		return err
	}

	page := newPageData(r, locale)
	page.Title = i18n.Tr(ctx, "Posts in {{.Topic}}", "Topic", opts.Topic)
	page.Subtitle = i18n.TrN(ctx, "{{.Count}} post", "{{.Count}} posts", len(posts), "Count", len(posts))

	list := newPostList(posts, opts.Limit)
	page.Posts, page.NextBefore = list.Posts, list.NextBefore

	writeJSON(w, http.StatusOK, page)

	return nil
}

// PostPage handles GET /{locale}/posts/{id}: a thread with its link preview.
func (api *API) PostPage(w http.ResponseWriter, r *http.Request) error {
	locale, err := pageLocale(r)
	if err != nil {
		return err
	}

	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	ctx := i18n.WithLocale(r.Context(), locale)

	thread, err := api.Forum.Thread(ctx, id)
	if err != nil {
		return err
	}

	// Link previews need absolute URLs.
	share := forum.ShareMetadata(thread.Post, locale)
	origin := utils.GetOriginFromRequest(r)
	share.URL = origin + share.URL
	share.ImageURL = origin + share.ImageURL

	page := newPageData(r, locale)
	page.Title = thread.Post.Title
	page.Subtitle = i18n.TrN(ctx, "{{.Count}} reply", "{{.Count}} replies", len(thread.Replies), "Count", len(thread.Replies))
	page.Thread = &thread
	page.Share = &share

	writeJSON(w, http.StatusOK, page)

	return nil
}
