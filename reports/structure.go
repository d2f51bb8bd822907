package reports

import (
	"io"
	"sort"

	"github.com/foomo/auditwalker/vo"
)

func reportStructure(status vo.Status, w io.Writer, filter resultFilter) {
	printh, println, _ := printers(w)
	h1s := duplications{}
	titles := duplications{}
	missingTitles := uniqueList{}
	missingH1 := uniqueList{}
	missingLang := uniqueList{}
	printh("structure")
	for _, r := range filtered(status, filter) {
		if r.Skipped != "" || r.Error != "" {
			continue
		}
		// titles repeat across viewports, compare per viewport
		key := r.Key()
		if r.Structure.Title == "" {
			missingTitles.add(key)
		} else {
			titles.add(r.Viewport+": "+r.Structure.Title, key)
		}
		if r.Structure.Lang == "" {
			missingLang.add(key)
		}
		foundH1 := false
		for _, heading := range r.Structure.Headings {
			if heading.Level == 1 && heading.Text != "" {
				h1s.add(r.Viewport+": "+heading.Text, key)
				foundH1 = true
			}
		}
		if !foundH1 {
			missingH1.add(key)
		}
	}
	printDuplicates := func(title string, d duplications) {
		if len(d) > 0 {
			printh(title)
			d.printlnDuplications(w)
		}
	}
	printDuplicates("duplicate h1", h1s)
	printDuplicates("duplicate titles", titles)

	printList := func(name string, list []string) {
		if len(list) > 0 {
			printh(name)
			sort.Strings(list)
			for _, l := range list {
				println("	", l)
			}
		}
	}
	printList("missing titles", missingTitles)
	printList("missing lang", missingLang)
	printList("missing h1", missingH1)
}

func reportSkipped(status vo.Status, w io.Writer, filter resultFilter) {
	printh, println, _ := printers(w)
	printh("skipped")
	for _, r := range filtered(status, filter) {
		if r.Skipped != "" {
			println(r.Key(), r.Path, "-", r.Skipped)
		}
	}
}
