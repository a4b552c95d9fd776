package models

import "time"

// Note is the snapshot held by a NoteValue.
type Note struct {
	ID        string    `json:"id" validate:"required"`
	Title     string    `json:"title" validate:"required,max=128"`
	Content   string    `json:"content" validate:"required,max=20000"`
	UserID    string    `json:"user_id" validate:"required"`
	CreatedAt time.Time `json:"created_at" validate:"required"`
	UpdatedAt time.Time `json:"updated_at" validate:"required"`
}

// NoteValue is an immutable, validated note record.
type NoteValue struct {
	v Note
}

func NewNoteValue(n Note) (NoteValue, error) {
	if err := Validate("note", n); err != nil {
		return NoteValue{}, err
	}
	return NoteValue{v: n}, nil
}

func (n NoteValue) Values() Note { return n.v }

func (n NoteValue) ID() string { return n.v.ID }

func (n NoteValue) IsZero() bool { return n.v.ID == "" }

// Tag is the snapshot held by a TagValue. Within one user a tag is
// identified by its name.
type Tag struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required,max=128"`
	UserID    string    `json:"user_id" validate:"required"`
	CreatedAt time.Time `json:"created_at" validate:"required"`
	UpdatedAt time.Time `json:"updated_at" validate:"required"`
}

type TagValue struct {
	v Tag
}

func NewTagValue(t Tag) (TagValue, error) {
	if err := Validate("tag", t); err != nil {
		return TagValue{}, err
	}
	return TagValue{v: t}, nil
}

func (t TagValue) Values() Tag { return t.v }

func (t TagValue) Name() string { return t.v.Name }

// NoteTag links a note to a tag in the note_tags join table.
type NoteTag struct {
	NoteID string
	TagID  string
}

type tagKey struct {
	userID string
	name   string
}

// NoteEntity is the note aggregate: the note row plus the set of tags it
// references. Tags are shared with other notes of the same user.
type NoteEntity struct {
	note NoteValue
	tags []TagValue
}

// NewNoteEntity binds a note to its tags. Tags sharing (user, name) collapse
// into the first occurrence; tags owned by someone else are rejected.
func NewNoteEntity(note NoteValue, tags []TagValue) (*NoteEntity, error) {
	if note.IsZero() {
		return nil, newValidationError("note entity", "note", "is required")
	}

	seen := make(map[tagKey]struct{}, len(tags))
	unique := make([]TagValue, 0, len(tags))
	for _, tag := range tags {
		if tag.v.UserID != note.v.UserID {
			return nil, newValidationError("note entity", "tags", "tag "+tag.v.Name+" belongs to another user")
		}
		key := tagKey{userID: tag.v.UserID, name: tag.v.Name}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, tag)
	}

	return &NoteEntity{note: note, tags: unique}, nil
}

func (e *NoteEntity) Values() Note { return e.note.Values() }

func (e *NoteEntity) ID() string { return e.note.ID() }

// Note returns the note value object.
func (e *NoteEntity) Note() NoteValue { return e.note }

func (e *NoteEntity) UserID() string { return e.note.v.UserID }

// Tags returns a copy of the tag snapshots in insertion order.
func (e *NoteEntity) Tags() []Tag {
	out := make([]Tag, len(e.tags))
	for i, t := range e.tags {
		out[i] = t.Values()
	}
	return out
}

func (e *NoteEntity) TagNames() []string {
	out := make([]string, len(e.tags))
	for i, t := range e.tags {
		out[i] = t.v.Name
	}
	return out
}

func (e *NoteEntity) HasTag(name string) bool {
	for _, t := range e.tags {
		if t.v.Name == name {
			return true
		}
	}
	return false
}

// NoteArgs is the row written to the notes table.
func (e *NoteEntity) NoteArgs() Note { return e.note.Values() }

// TagArgs are the rows upserted into the tags table.
func (e *NoteEntity) TagArgs() []Tag { return e.Tags() }

// NoteTagArgs are the join rows for the tags currently held.
func (e *NoteEntity) NoteTagArgs() []NoteTag {
	out := make([]NoteTag, len(e.tags))
	for i, t := range e.tags {
		out[i] = NoteTag{NoteID: e.note.v.ID, TagID: t.v.ID}
	}
	return out
}

// WithNote returns a new entity with the note replaced and the same tags.
func (e *NoteEntity) WithNote(note NoteValue) (*NoteEntity, error) {
	return NewNoteEntity(note, e.tags)
}

// WithTags returns a new entity with the tag set replaced.
func (e *NoteEntity) WithTags(tags []TagValue) (*NoteEntity, error) {
	return NewNoteEntity(e.note, tags)
}

// AddTag returns a new entity with tag appended. Adding a name already
// present is a no-op.
func (e *NoteEntity) AddTag(tag TagValue) (*NoteEntity, error) {
	tags := make([]TagValue, 0, len(e.tags)+1)
	tags = append(tags, e.tags...)
	return NewNoteEntity(e.note, append(tags, tag))
}

// RemoveTag returns a new entity without the tag called name.
func (e *NoteEntity) RemoveTag(name string) (*NoteEntity, error) {
	tags := make([]TagValue, 0, len(e.tags))
	for _, t := range e.tags {
		if t.v.Name != name {
			tags = append(tags, t)
		}
	}
	return NewNoteEntity(e.note, tags)
}
