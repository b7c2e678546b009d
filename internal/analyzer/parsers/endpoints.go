package parsers

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/classmap/internal/model"
)

var (
	flaskRoute    = regexp.MustCompile(`@\w+\.route\(\s*['"]([^'"]+)['"]([^)]*)\)`)
	flaskMethods  = regexp.MustCompile(`methods\s*=\s*[\[(]([^\])]*)[\])]`)
	fastapiRoute  = regexp.MustCompile(`@\w+\.(get|post|put|delete|patch)\(\s*['"]([^'"]+)['"]`)
	djangoPath    = regexp.MustCompile(`\b(?:re_)?path\(\s*r?['"]([^'"]*)['"]`)
	pyClassDecl   = regexp.MustCompile(`(?m)^[ \t]*class\s+(\w+)`)
	quotedWord    = regexp.MustCompile(`['"](\w+)['"]`)

	springMapping = regexp.MustCompile(`@(Get|Post|Put|Delete|Patch|Request)Mapping\s*(?:\(\s*(?:(?:value|path)\s*=\s*)?"([^"]*)"[^)]*\))?`)
	javaClassDecl = regexp.MustCompile(`\b(?:class|interface)\s+(\w+)`)

	aspnetVerb  = regexp.MustCompile(`\[Http(Get|Post|Put|Delete|Patch)(?:\(\s*"([^"]*)"\s*\))?\]`)
	aspnetRoute = regexp.MustCompile(`\[Route\(\s*"([^"]*)"\s*\)\]`)

	expressRoute = regexp.MustCompile(`\b(app|router|server)\.(get|post|put|delete|patch)\(\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)
	nestRoute    = regexp.MustCompile(`@(Get|Post|Put|Delete|Patch)\(\s*(?:['"]([^'"]*)['"])?\s*\)`)
	tsClassDecl  = regexp.MustCompile(`\bclass\s+([\w$]+)`)
)

func pythonEndpoints(src, path string) []model.Endpoint {
	var out []model.Endpoint
	for _, loc := range flaskRoute.FindAllStringSubmatchIndex(src, -1) {
		route := src[loc[2]:loc[3]]
		verbs := []string{"GET"}
		if m := flaskMethods.FindStringSubmatch(src[loc[4]:loc[5]]); m != nil {
			verbs = verbs[:0]
			for _, v := range quotedWord.FindAllStringSubmatch(m[1], -1) {
				verbs = append(verbs, strings.ToUpper(v[1]))
			}
		}
		owner := enclosingClass(src, loc[0], pyClassDecl)
		for _, verb := range verbs {
			out = append(out, model.Endpoint{Framework: "flask", Method: verb, Path: route, Class: owner, File: path})
		}
	}
	for _, loc := range fastapiRoute.FindAllStringSubmatchIndex(src, -1) {
		out = append(out, model.Endpoint{
			Framework: "fastapi",
			Method:    strings.ToUpper(src[loc[2]:loc[3]]),
			Path:      src[loc[4]:loc[5]],
			Class:     enclosingClass(src, loc[0], pyClassDecl),
			File:      path,
		})
	}
	for _, m := range djangoPath.FindAllStringSubmatch(src, -1) {
		route := "/" + strings.TrimPrefix(m[1], "/")
		for _, verb := range []string{"GET", "POST"} {
			out = append(out, model.Endpoint{Framework: "django", Method: verb, Path: route, File: path})
		}
	}
	return out
}

func springEndpoints(src, path string) []model.Endpoint {
	var out []model.Endpoint
	for _, loc := range springMapping.FindAllStringSubmatchIndex(src, -1) {
		verb := strings.ToUpper(src[loc[2]:loc[3]])
		if verb == "REQUEST" {
			verb = "GET"
		}
		route := "/"
		if loc[4] >= 0 {
			route = src[loc[4]:loc[5]]
		}
		out = append(out, model.Endpoint{
			Framework: "spring",
			Method:    verb,
			Path:      route,
			Class:     followingOrEnclosingClass(src, loc[0], javaClassDecl),
			File:      path,
		})
	}
	return out
}

func aspnetEndpoints(src, path string) []model.Endpoint {
	var out []model.Endpoint
	for _, loc := range aspnetVerb.FindAllStringSubmatchIndex(src, -1) {
		route := ""
		if loc[4] >= 0 {
			route = src[loc[4]:loc[5]]
		}
		out = append(out, model.Endpoint{
			Framework: "aspnet",
			Method:    strings.ToUpper(src[loc[2]:loc[3]]),
			Path:      route,
			Class:     enclosingClass(src, loc[0], javaClassDecl),
			File:      path,
		})
	}
	for _, loc := range aspnetRoute.FindAllStringSubmatchIndex(src, -1) {
		out = append(out, model.Endpoint{
			Framework: "aspnet",
			Method:    "GET",
			Path:      src[loc[2]:loc[3]],
			Class:     followingOrEnclosingClass(src, loc[0], javaClassDecl),
			File:      path,
		})
	}
	return out
}

func nodeEndpoints(src, path string) []model.Endpoint {
	var out []model.Endpoint
	for _, m := range expressRoute.FindAllStringSubmatch(src, -1) {
		out = append(out, model.Endpoint{
			Framework: "express",
			Method:    strings.ToUpper(m[2]),
			Path:      m[3],
			File:      path,
		})
	}
	for _, loc := range nestRoute.FindAllStringSubmatchIndex(src, -1) {
		route := "/"
		if loc[4] >= 0 {
			route = src[loc[4]:loc[5]]
		}
		out = append(out, model.Endpoint{
			Framework: "nestjs",
			Method:    strings.ToUpper(src[loc[2]:loc[3]]),
			Path:      route,
			Class:     enclosingClass(src, loc[0], tsClassDecl),
			File:      path,
		})
	}
	return out
}

// enclosingClass returns the last class declared before offset.
func enclosingClass(src string, offset int, decl *regexp.Regexp) string {
	matches := decl.FindAllStringSubmatch(src[:offset], -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}

// followingOrEnclosingClass handles annotations placed on the class itself,
// which precede its declaration.
func followingOrEnclosingClass(src string, offset int, decl *regexp.Regexp) string {
	if owner := enclosingClass(src, offset, decl); owner != "" {
		return owner
	}
	if m := decl.FindStringSubmatch(src[offset:]); m != nil {
		return m[1]
	}
	return ""
}
