package action

// Base supplies the Meta plumbing shared by every concrete action. Embed it
// and fill ActionMeta in the constructor.
type Base struct {
	ActionMeta Meta
}

// Meta returns the action's metadata.
func (b *Base) Meta() *Meta {
	return &b.ActionMeta
}
