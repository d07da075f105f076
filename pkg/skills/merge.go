package skills

import (
	"github.com/skillskit/skillskit/pkg/logger"
)

// MergeMetadata combines frontmatter with optional folder metadata. Folder
// values for link, owner and originalSource replace the frontmatter ones.
// Tags and category come from the folder when it defines a non-empty value,
// else from the frontmatter, else they are empty. Keys of a nested
// "metadata" mapping are lifted to the top level when not already present.
//
// Name and description are not checked; see Validate.
func MergeMetadata(frontmatter map[string]any, folder *FolderMetadata) Metadata {
	merged := flattenMetadata(frontmatter)

	if folder != nil {
		setIfNotEmpty(merged, "link", folder.Link)
		setIfNotEmpty(merged, "owner", folder.Owner)
		setIfNotEmpty(merged, "originalSource", folder.OriginalSource)
		setIfNotEmpty(merged, "category", folder.Category)
		if len(folder.Tags) > 0 {
			merged["tags"] = append([]string{}, folder.Tags...)
		}
	}

	md, err := decodeMetadata(merged)
	if err != nil {
		// only reachable through a value mapstructure cannot weakly convert
		logger.L.WithError(err).Warn("failed to decode skill metadata")
		md = Metadata{Tags: coerceTags(merged["tags"]), Extra: merged}
	}
	return md
}

func flattenMetadata(frontmatter map[string]any) map[string]any {
	out := make(map[string]any, len(frontmatter))
	for k, v := range frontmatter {
		out[k] = v
	}

	nested, ok := frontmatter["metadata"].(map[string]any)
	if !ok {
		return out
	}
	for k, v := range nested {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}

func setIfNotEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
