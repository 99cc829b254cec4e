package enums

// EditorState is the lifecycle state of an editing session.
type EditorState string

const (
	EditorStateIdle       EditorState = "idle"
	EditorStateLoading    EditorState = "loading"
	EditorStateReady      EditorState = "ready"
	EditorStateLoadFailed EditorState = "load_failed"
)

// String implements fmt.Stringer.
func (s EditorState) String() string {
	return string(s)
}

// CanEdit reports whether document mutations are accepted in this state.
func (s EditorState) CanEdit() bool {
	return s == EditorStateReady
}
