// Package forge talks to the GitHub REST API for repository contents and releases.
package forge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	json "github.com/goccy/go-json"

	"git.home.luguber.info/inful/sitesync/internal/config"
	ferrors "git.home.luguber.info/inful/sitesync/internal/foundation/errors"
	"git.home.luguber.info/inful/sitesync/internal/fetch"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
)

// Content entry types returned by the contents API.
const (
	TypeFile = "file"
	TypeDir  = "dir"
)

// ContentEntry is one item of a contents listing.
type ContentEntry struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	DownloadURL string `json:"download_url"`
}

// Asset is a file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// Release is the subset of the latest-release response sitesync needs.
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	Assets  []Asset `json:"assets"`
}

// GitHubClient reads repository contents and releases.
type GitHubClient struct {
	fetch  *fetch.Client
	apiURL string
	owner  string
	repo   string
	token  string
	ref    string
}

// NewGitHubClient creates a client for the repository named in cfg.
func NewGitHubClient(cfg config.GitHubConfig, fc *fetch.Client) *GitHubClient {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.github.com"
	}
	return &GitHubClient{
		fetch:  fc,
		apiURL: apiURL,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		token:  cfg.Token,
		ref:    cfg.Ref,
	}
}

// Repository returns "owner/repo".
func (c *GitHubClient) Repository() string { return c.owner + "/" + c.repo }

// ListContents lists one directory.
func (c *GitHubClient) ListContents(ctx context.Context, dir string) ([]ContentEntry, error) {
	endpoint := c.endpoint("repos", c.owner, c.repo, "contents", dir)
	if c.ref != "" {
		endpoint += "?ref=" + url.QueryEscape(c.ref)
	}
	var entries []ContentEntry
	if err := c.getJSON(ctx, endpoint, &entries); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryUpstream, "failed to list repository contents").
			WithContext("path", dir).
			Build()
	}
	return entries, nil
}

// ListFiles walks dir recursively and returns files whose name ends in ext,
// in listing order. A directory whose listing fails is logged and contributes
// no files; only context cancellation is returned as an error.
func (c *GitHubClient) ListFiles(ctx context.Context, dir, ext string) ([]ContentEntry, error) {
	entries, err := c.ListContents(ctx, dir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Error("Failed to list directory", logfields.Path(dir), logfields.Error(err))
		return nil, nil
	}
	var files []ContentEntry
	for _, e := range entries {
		switch e.Type {
		case TypeFile:
			if strings.HasSuffix(e.Name, ext) {
				files = append(files, e)
			}
		case TypeDir:
			sub, err := c.ListFiles(ctx, e.Path, ext)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
		}
	}
	return files, nil
}

// RawFile downloads the raw content of a listed file.
func (c *GitHubClient) RawFile(ctx context.Context, e ContentEntry) ([]byte, error) {
	if e.DownloadURL == "" {
		return nil, ferrors.UpstreamError("file has no download URL").WithContext("path", e.Path).Build()
	}
	return c.fetch.Get(ctx, fetch.Request{URL: e.DownloadURL, Header: c.authHeader(), Kind: fetch.KindRaw})
}

// LatestRelease returns the repository's latest published release.
func (c *GitHubClient) LatestRelease(ctx context.Context) (*Release, error) {
	var rel Release
	if err := c.getJSON(ctx, c.endpoint("repos", c.owner, c.repo, "releases", "latest"), &rel); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryUpstream, "failed to fetch latest release").
			WithContext("repository", c.Repository()).
			Build()
	}
	return &rel, nil
}

// DownloadAsset streams an asset into dir under its own name.
func (c *GitHubClient) DownloadAsset(ctx context.Context, a Asset, dir string) (*fetch.Download, error) {
	h := http.Header{}
	h.Set("Accept", "application/octet-stream")
	return c.fetch.DownloadToFile(ctx, fetch.Request{URL: a.BrowserDownloadURL, Header: h, Kind: fetch.KindAsset}, dir, a.Name)
}

func (c *GitHubClient) getJSON(ctx context.Context, endpoint string, out any) error {
	h := c.authHeader()
	h.Set("Accept", "application/vnd.github+json")
	h.Set("X-GitHub-Api-Version", "2022-11-28")
	body, err := c.fetch.Get(ctx, fetch.Request{URL: endpoint, Header: h, Kind: fetch.KindAPI})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *GitHubClient) authHeader() http.Header {
	h := http.Header{}
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	return h
}

func (c *GitHubClient) endpoint(parts ...string) string {
	u := url.URL{Path: "/" + path.Join(parts...)}
	return c.apiURL + u.EscapedPath()
}
