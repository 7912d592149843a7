// internal/service/template_service.go
package service

import "strings"

// RenderTemplate substitutes {{macro}} placeholders. The only macro the
// campaign wizard offers today is {{nome}}, but the substitution is generic.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	return result
}

// RenderForContact applies the standard contact macros to a template.
func RenderForContact(template, contactName string) string {
	return RenderTemplate(template, map[string]string{"nome": contactName})
}
