// Package gitmeta derives the commit metadata recorded with each benchmark
// run, either from a local git checkout or from a GitHub event payload.
package gitmeta

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/weiihann/simbench/dataset"
)

// Options tunes HeadCommit.
type Options struct {
	// Remote is the remote whose URL is used to build commit links.
	// Defaults to "origin".
	Remote string
	// RemoteURL overrides the remote lookup entirely.
	RemoteURL string
}

// HeadCommit opens the repository containing path and describes its HEAD
// commit in the shape of a GitHub push payload.
func HeadCommit(path string, opts Options) (dataset.Commit, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return dataset.Commit{}, fmt.Errorf("open repository %s: %w", path, err)
	}

	head, err := repo.Head()
	if err != nil {
		return dataset.Commit{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	c, err := repo.CommitObject(head.Hash())
	if err != nil {
		return dataset.Commit{}, fmt.Errorf("load commit %s: %w", head.Hash(), err)
	}

	remoteURL := opts.RemoteURL
	if remoteURL == "" {
		remoteURL, err = lookupRemote(repo, opts.Remote)
		if err != nil {
			return dataset.Commit{}, err
		}
	}

	return fromObject(c, RepoURL(remoteURL)), nil
}

func lookupRemote(repo *git.Repository, name string) (string, error) {
	if name == "" {
		name = "origin"
	}

	remote, err := repo.Remote(name)
	if errors.Is(err, git.ErrRemoteNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("remote %s: %w", name, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", nil
	}

	return urls[0], nil
}

func fromObject(c *object.Commit, repoURL string) dataset.Commit {
	distinct := true
	id := c.Hash.String()

	commit := dataset.Commit{
		Author: dataset.Person{
			Email: c.Author.Email,
			Name:  c.Author.Name,
		},
		Committer: &dataset.Person{
			Email: c.Committer.Email,
			Name:  c.Committer.Name,
		},
		Distinct:  &distinct,
		ID:        id,
		Message:   strings.TrimRight(c.Message, "\n"),
		Timestamp: c.Committer.When.Format(time.RFC3339),
		TreeID:    c.TreeHash.String(),
	}

	if repoURL != "" {
		commit.URL = repoURL + "/commit/" + id
	}

	return commit
}

// RepoURL turns a git remote URL into the browsable https URL of the
// repository. SCP-style ssh remotes, ssh:// and https remotes are accepted;
// credentials and a trailing ".git" are dropped. Unrecognized input is
// returned trimmed.
func RepoURL(remote string) string {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return ""
	}

	var host, path string

	if at := strings.Index(remote, "@"); at >= 0 && !strings.Contains(remote, "://") {
		// git@github.com:owner/repo.git
		rest := remote[at+1:]

		colon := strings.Index(rest, ":")
		if colon < 0 {
			return remote
		}

		host, path = rest[:colon], rest[colon+1:]
	} else {
		u, err := url.Parse(remote)
		if err != nil || u.Host == "" {
			return strings.TrimSuffix(remote, "/")
		}

		host, path = u.Hostname(), u.Path
		if u.Scheme == "http" || u.Scheme == "https" {
			host = u.Host
		}
	}

	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")

	return "https://" + host + "/" + path
}

// ErrNoHeadCommit is returned by ReadPayload for events that carry neither
// a head_commit nor a pull_request head.
var ErrNoHeadCommit = errors.New("event payload has no head commit")

type pullRequest struct {
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	Head    struct {
		SHA  string `json:"sha"`
		User struct {
			Login string `json:"login"`
		} `json:"user"`
		Repo struct {
			UpdatedAt string `json:"updated_at"`
		} `json:"repo"`
	} `json:"head"`
}

// ReadPayload extracts the commit under test from a GitHub event payload
// (the file named by GITHUB_EVENT_PATH). Push events carry it as
// head_commit. For pull_request events it is built from the head of the
// pull request, with the title as message and the head user as author.
func ReadPayload(r io.Reader) (dataset.Commit, error) {
	var event struct {
		HeadCommit  *dataset.Commit `json:"head_commit"`
		PullRequest *pullRequest    `json:"pull_request"`
	}

	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return dataset.Commit{}, fmt.Errorf("decode event payload: %w", err)
	}

	if event.HeadCommit != nil && event.HeadCommit.ID != "" {
		return *event.HeadCommit, nil
	}

	if pr := event.PullRequest; pr != nil && pr.Head.SHA != "" {
		user := dataset.Person{Name: pr.Head.User.Login, Username: pr.Head.User.Login}

		return dataset.Commit{
			Author:    user,
			Committer: &user,
			ID:        pr.Head.SHA,
			Message:   pr.Title,
			Timestamp: pr.Head.Repo.UpdatedAt,
			URL:       pr.HTMLURL + "/commits/" + pr.Head.SHA,
		}, nil
	}

	return dataset.Commit{}, ErrNoHeadCommit
}
