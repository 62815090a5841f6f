package broken

type Thing struct {
	ID   int64 `meta:"id"`
	Kind string `meta:"sideways"`
}
