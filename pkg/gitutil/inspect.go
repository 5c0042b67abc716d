package gitutil

import (
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"
)

type Remote struct {
	Name string   `json:"name"`
	URLs []string `json:"urls"`
}

// RepoStatus is a read-only snapshot of a repository.
type RepoStatus struct {
	Root        string   `json:"root"`
	Branch      string   `json:"branch"`
	Detached    bool     `json:"detached"`
	Head        string   `json:"head,omitempty"`
	Remotes     []Remote `json:"remotes"`
	HasUpstream bool     `json:"has_upstream"`
	Clean       bool     `json:"clean"`
	Changes     []string `json:"changes,omitempty"`
}

// Inspect opens the repository that contains dir and reads its state without
// modifying anything.
func Inspect(dir string) (*RepoStatus, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open repository at %s", dir)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.Wrap(err, "open worktree")
	}

	status := &RepoStatus{
		Root:    wt.Filesystem.Root(),
		Remotes: []Remote{},
	}

	head, err := repo.Head()
	switch {
	case err == nil:
		status.Head = head.Hash().String()[:7]
		if head.Name().IsBranch() {
			status.Branch = head.Name().Short()
		} else {
			status.Branch = plumbing.HEAD.String()
			status.Detached = true
		}

	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// No commits yet. HEAD still points to the unborn branch.
		ref, err := repo.Reference(plumbing.HEAD, false)
		if err != nil {
			return nil, errors.Wrap(err, "read HEAD")
		}
		status.Branch = ref.Target().Short()

	default:
		return nil, errors.Wrap(err, "read HEAD")
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return nil, errors.Wrap(err, "list remotes")
	}

	for _, r := range remotes {
		cfg := r.Config()
		status.Remotes = append(status.Remotes, Remote{
			Name: cfg.Name,
			URLs: cfg.URLs,
		})
		if cfg.Name == UpstreamName {
			status.HasUpstream = true
		}
	}

	sort.Slice(status.Remotes, func(i, j int) bool {
		return status.Remotes[i].Name < status.Remotes[j].Name
	})

	changes, err := wt.Status()
	if err != nil {
		return nil, errors.Wrap(err, "read worktree status")
	}

	status.Clean = changes.IsClean()
	for path, s := range changes {
		if s.Worktree == git.Unmodified && s.Staging == git.Unmodified {
			continue
		}
		status.Changes = append(status.Changes, path)
	}
	sort.Strings(status.Changes)

	return status, nil
}
