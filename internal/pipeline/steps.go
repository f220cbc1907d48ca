package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harrison/scone-ci/internal/models"
)

// Progress labels, printed verbatim before each step.
const (
	LabelBuild     = "[run] building SCONE"
	LabelRearrange = "[run] rearranging binaries"
	LabelPackage   = "[run] packaging deb"
)

// DefaultSteps returns the release pipeline in execution order.
func DefaultSteps() []models.Step {
	return []models.Step{
		{Name: models.StepBuild, Label: LabelBuild, Executable: "unix_2d_build-scone"},
		{Name: models.StepRearrange, Label: LabelRearrange, Executable: "linux_3_create-install-dirtree"},
		{Name: models.StepPackage, Label: LabelPackage, Executable: "linux_4_package"},
	}
}

// ApplyOverrides replaces step executables by step name.
// Order, labels and the set of steps are never changed; an override for an
// unknown step name is an error.
func ApplyOverrides(steps []models.Step, executables map[string]string) ([]models.Step, error) {
	out := make([]models.Step, len(steps))
	copy(out, steps)

	index := make(map[string]int, len(out))
	for i, s := range out {
		index[s.Name] = i
	}

	var unknown []string
	for name, exe := range executables {
		i, ok := index[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if strings.TrimSpace(exe) != "" {
			out[i].Executable = exe
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown step(s): %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// StepNames returns the names of steps in order.
func StepNames(steps []models.Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}
