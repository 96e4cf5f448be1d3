// Package taxonomy holds the static catalog of keyword tags offered for a workspace.
package taxonomy

import "slices"

// Category is a named, ordered set of tags.
type Category struct {
	Name string
	Tags []string
}

// Taxonomy is an ordered list of categories. It is immutable once built.
type Taxonomy struct {
	categories []Category
	index      map[string][]string // tag -> category names
	all        []string
}

// New builds a taxonomy. Tags inside a category are deduplicated; the order
// given by the caller is kept.
func New(categories ...Category) *Taxonomy {
	t := &Taxonomy{index: make(map[string][]string)}
	for _, c := range categories {
		seen := make(map[string]struct{}, len(c.Tags))
		tags := make([]string, 0, len(c.Tags))
		for _, tag := range c.Tags {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
			if _, known := t.index[tag]; !known {
				t.all = append(t.all, tag)
			}
			t.index[tag] = append(t.index[tag], c.Name)
		}
		t.categories = append(t.categories, Category{Name: c.Name, Tags: tags})
	}
	return t
}

// Categories returns a copy of every category in catalog order.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = Category{Name: c.Name, Tags: slices.Clone(c.Tags)}
	}
	return out
}

// Category looks up a category by name.
func (t *Taxonomy) Category(name string) (Category, bool) {
	for _, c := range t.categories {
		if c.Name == name {
			return Category{Name: c.Name, Tags: slices.Clone(c.Tags)}, true
		}
	}
	return Category{}, false
}

// AllTags returns every distinct tag name in first-seen catalog order.
// Tags listed under several categories appear once.
func (t *Taxonomy) AllTags() []string {
	return slices.Clone(t.all)
}

// Contains reports whether tag belongs to any category.
func (t *Taxonomy) Contains(tag string) bool {
	_, ok := t.index[tag]
	return ok
}

// CategoriesOf returns the names of the categories listing tag.
func (t *Taxonomy) CategoriesOf(tag string) []string {
	return slices.Clone(t.index[tag])
}
