package codemodel

// Library is an imported or used external library.
type Library struct {
	ID   LibraryID `json:"id"`
	Name string    `json:"name"`
}

type libraryStore struct {
	arena []*Library
	live  int
}

func (s *libraryStore) add(name string) LibraryID {
	id := LibraryID(len(s.arena))
	s.arena = append(s.arena, &Library{ID: id, Name: name})
	s.live++
	return id
}

func (s *libraryStore) remove(id LibraryID) bool {
	if id < 0 || int(id) >= len(s.arena) || s.arena[id] == nil {
		return false
	}
	s.arena[id] = nil
	s.live--
	return true
}

func (s *libraryStore) list(order SortOrder) []Library {
	out := make([]Library, 0, s.live)
	for _, lib := range s.arena {
		if lib != nil {
			out = append(out, *lib)
		}
	}
	if order == Alphabetical {
		sortByName(out, func(l Library) string { return l.Name })
	}
	return out
}
