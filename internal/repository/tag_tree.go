package repository

// StructuredTag is a parent tag together with its child tags. Children
// are never nested further; the taxonomy is a one-level tree.
type StructuredTag struct {
	Tag
	Children []*Tag
}

// StructuredTags is the UI-facing shape of the taxonomy: parents with
// their children, plus tags that have neither a parent nor children.
type StructuredTags struct {
	Parents    []*StructuredTag
	Standalone []*Tag
}

// BuildStructuredTags reshapes the flat tag list into the one-level tree.
// It is a pure transform over the input: tags with has_children become
// parents, tags referencing them are grouped underneath, and top-level
// tags without children land in Standalone. Input order (sort_order,
// value) is preserved within each group.
func BuildStructuredTags(tags []*Tag) *StructuredTags {
	out := &StructuredTags{
		Parents:    []*StructuredTag{},
		Standalone: []*Tag{},
	}
	for _, t := range tags {
		switch {
		case t.HasChildren:
			p := &StructuredTag{Tag: *t, Children: []*Tag{}}
			for _, c := range tags {
				if c.ParentTagID != nil && *c.ParentTagID == t.ID {
					p.Children = append(p.Children, c)
				}
			}
			out.Parents = append(out.Parents, p)
		case t.ParentTagID == nil:
			out.Standalone = append(out.Standalone, t)
		}
	}
	return out
}
