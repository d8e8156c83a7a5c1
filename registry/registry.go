package registry

import (
	"github.com/pkg/errors"

	"github.com/back2basic/linkcollector/model"
)

var ErrPrefixNotFound = errors.New("prefix not found")

// Group is the ordered set of links polled through one prefix.
type Group struct {
	Prefix string
	Links  []*model.Link
}

// Addresses lists the peer address of every link in the group, in load order.
func (g Group) Addresses() []string {
	out := make([]string, 0, len(g.Links))
	for _, l := range g.Links {
		out = append(out, l.Address)
	}
	return out
}

// Duplicate is an address that appears more than once under one prefix.
type Duplicate struct {
	Prefix  string
	Address string
	LinkIDs []int
}

// Registry holds every monitored link grouped by prefix.
// It is not safe for concurrent use; the poll loop owns it.
type Registry struct {
	order  []string
	groups map[string][]*model.Link
	ids    map[int]struct{}
}

func New() *Registry {
	return &Registry{
		groups: make(map[string][]*model.Link),
		ids:    make(map[int]struct{}),
	}
}

// Load appends a link with zeroed statistics under prefix.
// Addresses are not checked for uniqueness here.
func (r *Registry) Load(prefix string, linkID int, address string) *model.Link {
	link := model.NewLink(prefix, linkID, address)
	if _, ok := r.groups[prefix]; !ok {
		r.order = append(r.order, prefix)
	}
	r.groups[prefix] = append(r.groups[prefix], link)
	r.ids[linkID] = struct{}{}
	return link
}

// HasID reports whether a link with this id was already loaded.
func (r *Registry) HasID(linkID int) bool {
	_, ok := r.ids[linkID]
	return ok
}

func (r *Registry) LinksFor(prefix string) ([]*model.Link, error) {
	links, ok := r.groups[prefix]
	if !ok {
		return nil, errors.Wrap(ErrPrefixNotFound, prefix)
	}
	return links, nil
}

// Groups returns every prefix with its links, prefixes in first-load order.
func (r *Registry) Groups() []Group {
	out := make([]Group, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, Group{Prefix: p, Links: r.groups[p]})
	}
	return out
}

func (r *Registry) Prefixes() []string {
	return append([]string(nil), r.order...)
}

// Len is the total number of links across all prefixes.
func (r *Registry) Len() int {
	n := 0
	for _, links := range r.groups {
		n += len(links)
	}
	return n
}

// Snapshot copies every link's current state.
func (r *Registry) Snapshot() []model.LinkStat {
	out := make([]model.LinkStat, 0, r.Len())
	for _, p := range r.order {
		for _, l := range r.groups[p] {
			out = append(out, l.Snapshot())
		}
	}
	return out
}

// DuplicateAddresses finds addresses shared by several links of the same prefix.
// Replies for such an address only ever update the last of them.
func (r *Registry) DuplicateAddresses() []Duplicate {
	var out []Duplicate
	for _, p := range r.order {
		seen := make(map[string][]int)
		var addrs []string
		for _, l := range r.groups[p] {
			if _, ok := seen[l.Address]; !ok {
				addrs = append(addrs, l.Address)
			}
			seen[l.Address] = append(seen[l.Address], l.ID)
		}
		for _, a := range addrs {
			if ids := seen[a]; len(ids) > 1 {
				out = append(out, Duplicate{Prefix: p, Address: a, LinkIDs: ids})
			}
		}
	}
	return out
}
