package pipeline

type State string

const (
	NotStarted State = "NotStarted"
	Ingesting  State = "Ingesting"
	Validating State = "Validating"
	Succeeded  State = "Succeeded"
	Failed     State = "Failed"
)

func (s State) String() string {
	return string(s)
}

// Terminal reports whether no transition can leave s.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}

func ParseState(s string) (State, bool) {
	switch State(s) {
	case NotStarted, Ingesting, Validating, Succeeded, Failed:
		return State(s), true
	default:
		return "", false
	}
}
