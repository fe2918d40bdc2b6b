package logging

import "strings"

// FormatSubject builds the component/stage/slide subject string used in
// console output, e.g. "narrate · Slide 4".
func FormatSubject(component, stage, slide string) string {
	component = strings.TrimSpace(component)
	stage = strings.TrimSpace(stage)
	slide = strings.TrimSpace(slide)
	parts := make([]string, 0, 2)
	switch {
	case stage != "":
		parts = append(parts, stage)
	case component != "":
		parts = append(parts, component)
	}
	if slide != "" {
		parts = append(parts, "Slide "+slide)
	}
	return strings.Join(parts, " · ")
}
