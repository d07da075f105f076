package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillskit/skillskit/pkg/skills"
)

func TestFilterByTagGlob(t *testing.T) {
	list := []*skills.ParsedSkill{
		{Metadata: skills.Metadata{Name: "pdf", Tags: []string{"pdf", "extract"}}},
		{Metadata: skills.Metadata{Name: "pdf-forms", Tags: []string{"pdf-forms"}}},
		{Metadata: skills.Metadata{Name: "review", Tags: []string{"git"}}},
	}

	tests := []struct {
		name     string
		pattern  string
		expected []string
	}{
		{name: "empty pattern keeps all", pattern: "", expected: []string{"pdf", "pdf-forms", "review"}},
		{name: "exact", pattern: "git", expected: []string{"review"}},
		{name: "wildcard", pattern: "pdf*", expected: []string{"pdf", "pdf-forms"}},
		{name: "alternatives", pattern: "{git,extract}", expected: []string{"pdf", "review"}},
		{name: "no match", pattern: "none", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered, err := filterByTagGlob(list, tt.pattern)
			require.NoError(t, err)

			names := []string{}
			for _, s := range filtered {
				names = append(names, s.Metadata.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestFilterByTagGlob_InvalidPattern(t *testing.T) {
	_, err := filterByTagGlob(nil, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tag pattern")
}

func TestRenderSkillsTable(t *testing.T) {
	var buf bytes.Buffer
	err := renderSkillsTable(&buf, []*skills.ParsedSkill{
		{Metadata: skills.Metadata{Name: "pdf", Description: "Extract text", Category: "Documents", Tags: []string{"pdf", "extract"}}},
		{Metadata: skills.Metadata{Name: "bare", Description: "A description that is definitely longer than sixty characters in total"}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "pdf,extract")
	assert.Contains(t, out, "Documents")
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, "in total")
}

func TestRenderSkillsTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderSkillsTable(&buf, nil))
	assert.Equal(t, "No skills found.\n", buf.String())
}

func TestRunList(t *testing.T) {
	skillsFixture(t)
	ctx := context.Background()

	t.Run("category filter ignores case", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, runList(ctx, &buf, &ListConfig{Category: "DOCUMENTS", JSONOutput: true}))

		var list []skills.ParsedSkill
		require.NoError(t, json.Unmarshal(buf.Bytes(), &list))
		names := []string{}
		for _, s := range list {
			names = append(names, s.Metadata.Name)
		}
		assert.ElementsMatch(t, []string{"pdf", "docx"}, names)
	})

	t.Run("tag glob", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, runList(ctx, &buf, &ListConfig{Tag: "g*", JSONOutput: true}))

		var list []skills.ParsedSkill
		require.NoError(t, json.Unmarshal(buf.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "review", list[0].Metadata.Name)
		assert.Equal(t, "dev", list[0].Metadata.Category)
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, runList(ctx, &buf, NewListConfig()))
		assert.Contains(t, buf.String(), "review")
		assert.Contains(t, buf.String(), "docx")
	})

	t.Run("unreadable source yields empty list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, runList(ctx, &buf, &ListConfig{SourceDir: "/does/not/exist", JSONOutput: true}))
		assert.Equal(t, "[]\n", buf.String())
	})
}
