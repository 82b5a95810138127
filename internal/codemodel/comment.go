package codemodel

import "fmt"

// Target is what a comment is about: AboutCode, AboutInformation or
// AboutTreatment. A comment has at most one target; a nil Target marks an
// orphaned comment whose target was removed or never resolved.
type Target interface {
	category() CommentFilter
}

// AboutCode targets the file as a whole (header comment).
type AboutCode struct{}

// AboutInformation targets one information.
type AboutInformation struct {
	ID InfoID `json:"id"`
}

// AboutTreatment targets one treatment.
type AboutTreatment struct {
	ID TreatmentID `json:"id"`
}

func (AboutCode) category() CommentFilter        { return CommentsAboutCode }
func (AboutInformation) category() CommentFilter { return CommentsAboutInformation }
func (AboutTreatment) category() CommentFilter   { return CommentsAboutTreatment }

// TargetName returns "code", "information", "traitement", or "" for nil.
func TargetName(t Target) string {
	if t == nil {
		return ""
	}
	return string(t.category())
}

// Comment is a read-only copy of a comment.
type Comment struct {
	ID     CommentID `json:"id"`
	Text   string    `json:"text"`
	Target Target    `json:"target,omitempty"`
}

// Attached reports whether the comment currently has a target.
func (c Comment) Attached() bool { return c.Target != nil }

// Matches reports whether c belongs to the category f. Orphaned comments
// only match CommentsAll.
func (c Comment) Matches(f CommentFilter) bool {
	if f == CommentsAll {
		return true
	}
	return c.Target != nil && c.Target.category() == f
}

type commentRecord struct {
	text   string
	target Target
}

// commentStore owns the comments of a Code and the back-references from
// targets to the single comment attached to each of them.
type commentStore struct {
	arena       []*commentRecord
	live        int
	header      CommentID
	hasHeader   bool
	onInfo      map[InfoID]CommentID
	onTreatment map[TreatmentID]CommentID
}

func newCommentStore() commentStore {
	return commentStore{
		onInfo:      make(map[InfoID]CommentID),
		onTreatment: make(map[TreatmentID]CommentID),
	}
}

func (s *commentStore) add(text string) CommentID {
	id := CommentID(len(s.arena))
	s.arena = append(s.arena, &commentRecord{text: text})
	s.live++
	return id
}

func (s *commentStore) get(id CommentID) (*commentRecord, bool) {
	if id < 0 || int(id) >= len(s.arena) || s.arena[id] == nil {
		return nil, false
	}
	return s.arena[id], true
}

// attach points id at target, clearing its previous target first. If the
// target already carried another comment, that comment is orphaned and
// returned as displaced.
func (s *commentStore) attach(id CommentID, target Target) (displaced CommentID, replaced bool) {
	s.detach(id)
	rec := s.arena[id]

	var prev CommentID
	switch t := target.(type) {
	case AboutCode:
		prev, replaced = s.header, s.hasHeader
		s.header, s.hasHeader = id, true
	case AboutInformation:
		prev, replaced = s.onInfo[t.ID]
		s.onInfo[t.ID] = id
	case AboutTreatment:
		prev, replaced = s.onTreatment[t.ID]
		s.onTreatment[t.ID] = id
	default:
		panic(fmt.Sprintf("codemodel: unhandled comment target %T", target))
	}
	if replaced {
		s.arena[prev].target = nil
	}
	rec.target = target
	return prev, replaced
}

// detach clears the target of id and the matching back-reference.
func (s *commentStore) detach(id CommentID) {
	rec := s.arena[id]
	switch t := rec.target.(type) {
	case nil:
		return
	case AboutCode:
		if s.hasHeader && s.header == id {
			s.hasHeader = false
		}
	case AboutInformation:
		if s.onInfo[t.ID] == id {
			delete(s.onInfo, t.ID)
		}
	case AboutTreatment:
		if s.onTreatment[t.ID] == id {
			delete(s.onTreatment, t.ID)
		}
	}
	rec.target = nil
}

func (s *commentStore) remove(id CommentID) bool {
	if _, ok := s.get(id); !ok {
		return false
	}
	s.detach(id)
	s.arena[id] = nil
	s.live--
	return true
}

// orphanInformation detaches the comment about info, if any. The comment
// stays in the store.
func (s *commentStore) orphanInformation(info InfoID) {
	if id, ok := s.onInfo[info]; ok {
		s.detach(id)
	}
}

func (s *commentStore) orphanTreatment(t TreatmentID) {
	if id, ok := s.onTreatment[t]; ok {
		s.detach(id)
	}
}

// consistent checks that the target of id and the back-reference agree.
func (s *commentStore) consistent(id CommentID) error {
	rec, ok := s.get(id)
	if !ok {
		return notFound("comment", int(id))
	}
	var back CommentID
	var has bool
	switch t := rec.target.(type) {
	case nil:
		return nil
	case AboutCode:
		back, has = s.header, s.hasHeader
	case AboutInformation:
		back, has = s.onInfo[t.ID]
	case AboutTreatment:
		back, has = s.onTreatment[t.ID]
	}
	if !has || back != id {
		return fmt.Errorf("comment %d targets %s but the target does not point back", id, TargetName(rec.target))
	}
	return nil
}

func (s *commentStore) snapshot(id CommentID) Comment {
	rec := s.arena[id]
	return Comment{ID: id, Text: rec.text, Target: rec.target}
}

func (s *commentStore) each(fn func(Comment)) {
	for id, rec := range s.arena {
		if rec != nil {
			fn(s.snapshot(CommentID(id)))
		}
	}
}

func (s *commentStore) list(f CommentFilter) []Comment {
	out := []Comment{}
	s.each(func(c Comment) {
		if c.Matches(f) {
			out = append(out, c)
		}
	})
	return out
}

func (s *commentStore) count(f CommentFilter) int {
	if f == CommentsAll {
		return s.live
	}
	n := 0
	s.each(func(c Comment) {
		if c.Matches(f) {
			n++
		}
	})
	return n
}
