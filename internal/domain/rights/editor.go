package rights

// Aggregate is the state of one capability across a whole forest.
type Aggregate string

const (
	AggregateAll   Aggregate = "all"
	AggregateNone  Aggregate = "none"
	AggregateMixed Aggregate = "mixed"
)

// SaveTicket captures what was handed to the save sink so the result can be
// matched back to the load it came from.
type SaveTicket struct {
	RoleID     string
	Generation uint64
	Forest     Forest
	Payload    SavePayload
}

// Editor tracks one role's forest while it is being edited: the working
// copy, the last saved snapshot and the master toggle display state.
// An Editor is not safe for concurrent use; see SessionRegistry.
type Editor struct {
	roleID     string
	generation uint64
	current    Forest
	saved      Forest
	master     map[Capability]bool
}

func NewEditor() *Editor {
	return &Editor{master: map[Capability]bool{}}
}

// Load replaces the edited forest wholesale, e.g. on a role switch. Any save
// started before Load is reported stale by CommitSave.
func (e *Editor) Load(roleID string, f Forest) {
	e.roleID = roleID
	e.generation++
	e.saved = f.Clone()
	e.current = f.Clone()
	e.master = map[Capability]bool{}
}

func (e *Editor) RoleID() string {
	return e.roleID
}

func (e *Editor) Generation() uint64 {
	return e.generation
}

func (e *Editor) Current() Forest {
	return e.current.Clone()
}

func (e *Editor) Saved() Forest {
	return e.saved.Clone()
}

func (e *Editor) HasChanges() bool {
	return !Equal(e.current, e.saved)
}

func (e *Editor) Changes() []Change {
	return Diff(e.saved, e.current)
}

func (e *Editor) Toggle(path Path, c Capability, value bool) error {
	next, err := Toggle(e.current, path, c, value)
	if err != nil {
		return err
	}
	e.current = next
	return nil
}

func (e *Editor) Cascade(path Path, c Capability, value bool) error {
	next, err := Cascade(e.current, path, c, value)
	if err != nil {
		return err
	}
	e.current = next
	return nil
}

// SetMaster applies the master toggle and records value as the toggle's
// displayed state. Later per-node edits do not update that state.
func (e *Editor) SetMaster(c Capability, value bool) error {
	next, err := Master(e.current, c, value)
	if err != nil {
		return err
	}
	e.current = next
	e.master[c] = value
	return nil
}

func (e *Editor) MasterState(c Capability) bool {
	return e.master[c]
}

// Aggregate derives the true all/none/mixed state of c from the working
// forest. An empty forest reports none.
func (e *Editor) Aggregate(c Capability) Aggregate {
	return AggregateOf(e.current, c)
}

func AggregateOf(f Forest, c Capability) Aggregate {
	on, total := 0, 0
	f.Walk(func(_ Path, n MenuNode) bool {
		total++
		if n.Permissions.Get(c) {
			on++
		}
		return true
	})
	switch {
	case total == 0 || on == 0:
		return AggregateNone
	case on == total:
		return AggregateAll
	default:
		return AggregateMixed
	}
}

// Reset discards unsaved edits.
func (e *Editor) Reset() {
	e.current = e.saved.Clone()
}

func (e *Editor) BeginSave(userID string) SaveTicket {
	snapshot := e.current.Clone()
	return SaveTicket{
		RoleID:     e.roleID,
		Generation: e.generation,
		Forest:     snapshot,
		Payload:    Serialize(e.roleID, userID, snapshot),
	}
}

// CommitSave marks the ticket's snapshot as saved. Edits made while the save
// was in flight remain unsaved. A ticket from an earlier load is discarded
// with ErrStaleSave and the editor is left untouched.
func (e *Editor) CommitSave(t SaveTicket) error {
	if t.Generation != e.generation || t.RoleID != e.roleID {
		return ErrStaleSave
	}
	e.saved = t.Forest.Clone()
	return nil
}
