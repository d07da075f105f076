package skills

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Validate reports skills that consumers cannot use: a missing name or
// description, or a name already taken by an earlier skill. The loader itself
// accepts such skills; callers that need complete metadata run this.
func Validate(skills []*ParsedSkill) error {
	var result *multierror.Error
	seen := make(map[string]string, len(skills))

	for _, skill := range skills {
		name := strings.TrimSpace(skill.Metadata.Name)

		if name == "" {
			result = multierror.Append(result, errors.Errorf("%s: skill name is required in frontmatter", skill.Path))
		}
		if strings.TrimSpace(skill.Metadata.Description) == "" {
			result = multierror.Append(result, errors.Errorf("%s: skill description is required in frontmatter", skill.Path))
		}
		if name == "" {
			continue
		}

		if first, ok := seen[name]; ok {
			result = multierror.Append(result, errors.Errorf("%s: duplicate skill name '%s' (first defined in %s)", skill.Path, name, first))
			continue
		}
		seen[name] = skill.Path
	}

	return result.ErrorOrNil()
}
