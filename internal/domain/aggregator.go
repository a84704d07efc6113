package domain

import (
	"fmt"
	"sort"

	m "github.com/mouse-blink/archdna/internal/model"
)

// Aggregate merges scanner output across all files into logical types keyed
// by (namespace, name). Partial fragments merge commutatively: member lists
// concatenate, attribute and base-type sets union, LOC sums. Merging applies
// only to fragments marked partial; a duplicate declaration where neither
// side is partial, or with partial merging disabled, is surfaced as a
// diagnostic and the first fragment wins.
//
// Aggregate is the synchronization barrier of a run: it must see every scan
// result before the model is built. Results are processed in path order so
// the merged output is independent of scan scheduling.
func Aggregate(results []ScanResult, includePartial bool) (map[m.TypeKey]*m.TypeDeclaration, map[m.TypeKey]string, []m.Diagnostic) {
	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })

	types := make(map[m.TypeKey]*m.TypeDeclaration)
	bodies := make(map[m.TypeKey]string)
	var diags []m.Diagnostic

	for _, res := range results {
		diags = append(diags, res.Diagnostics...)

		for _, decl := range res.Types {
			// Using directives are file-scoped; every type declared in the
			// file inherits them for dependency derivation.
			decl.Usings = append(decl.Usings, res.Usings...)
			key := decl.Key()
			body := res.Bodies[key]
			existing, seen := types[key]
			if !seen {
				types[key] = decl
				bodies[key] = body
				continue
			}

			if !includePartial {
				diags = append(diags, m.Diagnostic{
					Stage:   "scan",
					Subject: string(decl.File),
					Message: fmt.Sprintf("duplicate declaration of %s.%s (partial aggregation disabled)", key.Namespace, key.Name),
				})
				continue
			}
			if !existing.IsPartial && !decl.IsPartial {
				diags = append(diags, m.Diagnostic{
					Stage:   "scan",
					Subject: string(decl.File),
					Message: fmt.Sprintf("duplicate declaration of %s.%s (neither fragment is marked partial)", key.Namespace, key.Name),
				})
				continue
			}

			mergeFragment(existing, decl)
			bodies[key] = bodies[key] + "\n" + body
		}
	}

	return types, bodies, diags
}

func mergeFragment(dst, src *m.TypeDeclaration) {
	dst.Members = append(dst.Members, src.Members...)
	dst.Usings = append(dst.Usings, src.Usings...)
	dst.Locations = append(dst.Locations, src.Locations...)
	dst.LOC += src.LOC
	dst.IsPartial = dst.IsPartial || src.IsPartial

	for _, attr := range src.Attributes {
		if !hasAttribute(dst.Attributes, attr.Name) {
			dst.Attributes = append(dst.Attributes, attr)
		}
	}
	for _, base := range src.BaseTypes {
		if !containsString(dst.BaseTypes, base) {
			dst.BaseTypes = append(dst.BaseTypes, base)
		}
	}
}

func hasAttribute(attrs []m.Attribute, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
