package signals

import (
	"sort"
	"strings"
)

// SplitTags returns the trimmed, non-empty comma-separated parts of notes, case preserved.
func SplitTags(notes string) []string {
	var out []string
	for _, part := range strings.Split(notes, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExtractTags unions the tags of every notes string into a sorted, distinct list.
func ExtractTags(notes []string) []string {
	set := make(map[string]struct{})
	for _, n := range notes {
		for _, tag := range SplitTags(n) {
			set[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func SignalTags(list []Signal) []string {
	notes := make([]string, len(list))
	for i, s := range list {
		notes[i] = s.Notes
	}
	return ExtractTags(notes)
}

func ClosedTradeTags(list []ClosedTrade) []string {
	notes := make([]string, len(list))
	for i, t := range list {
		notes[i] = t.Notes
	}
	return ExtractTags(notes)
}
