package taxonomy

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_CategoriesInOrder(t *testing.T) {
	cats := Default().Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"Physics", "Mathematics", "Computer Science", "Biology",
		"Economics", "Statistics", "Electrical Engineering", "General"}, names)
}

func TestDefault_TagsSorted(t *testing.T) {
	for _, c := range Default().Categories() {
		assert.True(t, slices.IsSorted(c.Tags), "category %q is not sorted", c.Name)
	}
	general, ok := Default().Category("General")
	require.True(t, ok)
	assert.Equal(t, []string{"Dataset", "Experiment", "Model", "Other", "Review", "Simulation", "Theory"}, general.Tags)
}

func TestAllTags_SharedTagListedOnce(t *testing.T) {
	tx := Default()
	all := tx.AllTags()
	count := 0
	for _, tag := range all {
		if tag == "Theory" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"Physics", "General"}, tx.CategoriesOf("Theory"))
}

func TestNew_DeduplicatesWithinCategory(t *testing.T) {
	tx := New(Category{Name: "A", Tags: []string{"x", "y", "x"}})
	c, ok := tx.Category("A")
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, c.Tags)
	assert.True(t, tx.Contains("y"))
	assert.False(t, tx.Contains("z"))
}

func TestCategories_ReturnsCopies(t *testing.T) {
	tx := New(Category{Name: "A", Tags: []string{"x"}})
	cats := tx.Categories()
	cats[0].Tags[0] = "mutated"
	c, _ := tx.Category("A")
	assert.Equal(t, "x", c.Tags[0])
}

func TestCategory_Missing(t *testing.T) {
	_, ok := Default().Category("Alchemy")
	assert.False(t, ok)
}
