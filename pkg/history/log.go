package history

import "github.com/odvcencio/scened/pkg/scene"

// DefaultLimit bounds the log when no explicit limit is configured.
const DefaultLimit = 100

// Log is an ordered sequence of commands plus a cursor: the index of the
// next command a redo would replay. Recording while the cursor is not at the
// end discards the tail (redo history is dropped on a fresh edit). The log
// is bounded; exceeding the limit drops the oldest entry.
type Log struct {
	limit    int
	commands []Command
	cursor   int

	inGesture   bool
	gestureKey  string
	gestureSeen bool // a matching command was recorded in the open gesture
}

// NewLog returns an empty log bounded to limit commands; a non-positive
// limit selects DefaultLimit.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{limit: limit}
}

// Len returns the number of recorded commands.
func (l *Log) Len() int { return len(l.commands) }

// Cursor returns the redo position; Cursor() == Len() means nothing to redo.
func (l *Log) Cursor() int { return l.cursor }

// CanUndo reports whether an undo would replay a command.
func (l *Log) CanUndo() bool { return l.cursor > 0 }

// CanRedo reports whether a redo would replay a command.
func (l *Log) CanRedo() bool { return l.cursor < len(l.commands) }

// Labels returns the labels of all recorded commands, oldest first. Feed for
// a history panel.
func (l *Log) Labels() []string {
	out := make([]string, len(l.commands))
	for i, c := range l.commands {
		out[i] = c.Label
	}
	return out
}

// BeginGesture opens a coalescing window: commands whose merge key equals
// key collapse into a single history entry until EndGesture. Opening a new
// gesture ends any previous one.
func (l *Log) BeginGesture(key string) {
	l.inGesture = true
	l.gestureKey = key
	l.gestureSeen = false
}

// EndGesture closes the current gesture; the next matching command starts a
// fresh history entry.
func (l *Log) EndGesture() {
	l.inGesture = false
	l.gestureKey = ""
	l.gestureSeen = false
}

// Apply replays the command's forward payload on the graph, then records it.
// On error the graph and the log are unchanged.
func (l *Log) Apply(g *scene.Graph, cmd Command) error {
	if err := applyPayload(g, cmd.Forward); err != nil {
		return err
	}
	l.Record(cmd)
	return nil
}

// Record adds an already-applied command to the log. When the cursor sits at
// the end, the previous command shares the new command's merge key, and both
// fall inside the open gesture, the new forward payload replaces the
// previous one instead of appending (the inverse keeps the pre-gesture
// state). Otherwise the tail beyond the cursor is discarded and the command
// appended.
func (l *Log) Record(cmd Command) {
	if l.coalesces(cmd) {
		last := &l.commands[l.cursor-1]
		last.Forward = cmd.Forward
		last.Label = cmd.Label
		return
	}

	l.commands = append(l.commands[:l.cursor], cmd)
	l.cursor = len(l.commands)
	if len(l.commands) > l.limit {
		drop := len(l.commands) - l.limit
		l.commands = append([]Command(nil), l.commands[drop:]...)
		l.cursor -= drop
	}
	if l.inGesture && cmd.MergeKey != "" && cmd.MergeKey == l.gestureKey {
		l.gestureSeen = true
	}
}

func (l *Log) coalesces(cmd Command) bool {
	return l.inGesture && l.gestureSeen &&
		cmd.MergeKey != "" && cmd.MergeKey == l.gestureKey &&
		l.cursor == len(l.commands) && l.cursor > 0 &&
		l.commands[l.cursor-1].MergeKey == cmd.MergeKey
}

// Undo replays the inverse payload of the command before the cursor and
// moves the cursor back. Returns false with a nil error when there is
// nothing to undo.
func (l *Log) Undo(g *scene.Graph) (bool, error) {
	if l.cursor == 0 {
		return false, nil
	}
	if err := applyPayload(g, l.commands[l.cursor-1].Inverse); err != nil {
		return false, err
	}
	l.cursor--
	return true, nil
}

// Redo replays the forward payload of the command at the cursor and
// advances. Returns false with a nil error when there is nothing to redo.
func (l *Log) Redo(g *scene.Graph) (bool, error) {
	if l.cursor == len(l.commands) {
		return false, nil
	}
	if err := applyPayload(g, l.commands[l.cursor].Forward); err != nil {
		return false, err
	}
	l.cursor++
	return true, nil
}
