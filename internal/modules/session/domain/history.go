package domain

type MonthGroup struct {
	MonthName string
	MonthKey  string
	Sessions  []Summary
}

type Pagination struct {
	CurrentPage int
	PageSize    int
	TotalPages  int
	TotalCount  int
	HasNext     bool
	HasPrev     bool
}

// History is the month-grouped session list as loaded so far.
type History struct {
	Groups     []MonthGroup
	Pagination Pagination
}

// Merge folds a later page into h. Sessions for a month already present are
// appended to that group; unseen months are appended in page order. The
// page's pagination replaces h's. Neither input is modified.
func (h History) Merge(page History) History {
	merged := History{Groups: cloneGroups(h.Groups), Pagination: page.Pagination}
	index := make(map[string]int, len(merged.Groups))
	for i, g := range merged.Groups {
		index[g.MonthKey] = i
	}
	for _, g := range page.Groups {
		if i, ok := index[g.MonthKey]; ok {
			merged.Groups[i].Sessions = append(merged.Groups[i].Sessions, g.Sessions...)
			continue
		}
		index[g.MonthKey] = len(merged.Groups)
		merged.Groups = append(merged.Groups, MonthGroup{
			MonthName: g.MonthName,
			MonthKey:  g.MonthKey,
			Sessions:  append([]Summary(nil), g.Sessions...),
		})
	}
	return merged
}

// Remove drops the session with the given id. Groups left empty are removed
// too. The second return reports whether anything was removed.
func (h History) Remove(id string) (History, bool) {
	out := History{Pagination: h.Pagination}
	removed := false
	for _, g := range h.Groups {
		kept := make([]Summary, 0, len(g.Sessions))
		for _, s := range g.Sessions {
			if s.ID == id {
				removed = true
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) == 0 {
			continue
		}
		out.Groups = append(out.Groups, MonthGroup{MonthName: g.MonthName, MonthKey: g.MonthKey, Sessions: kept})
	}
	if removed && out.Pagination.TotalCount > 0 {
		out.Pagination.TotalCount--
	}
	return out, removed
}

func (h History) Contains(id string) bool {
	for _, g := range h.Groups {
		for _, s := range g.Sessions {
			if s.ID == id {
				return true
			}
		}
	}
	return false
}

func (h History) Count() int {
	n := 0
	for _, g := range h.Groups {
		n += len(g.Sessions)
	}
	return n
}

func (h History) CanLoadMore() bool {
	return h.Pagination.HasNext
}

func cloneGroups(groups []MonthGroup) []MonthGroup {
	out := make([]MonthGroup, len(groups))
	for i, g := range groups {
		out[i] = MonthGroup{MonthName: g.MonthName, MonthKey: g.MonthKey, Sessions: append([]Summary(nil), g.Sessions...)}
	}
	return out
}
