// internal/service/template_service_test.go
package service

import "testing"

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		want     string
	}{
		{
			name:     "single macro",
			template: "Oi {{nome}}!",
			data:     map[string]string{"nome": "Maria"},
			want:     "Oi Maria!",
		},
		{
			name:     "repeated macro",
			template: "{{nome}}, {{nome}}",
			data:     map[string]string{"nome": "Maria"},
			want:     "Maria, Maria",
		},
		{
			name:     "unknown macro left as-is",
			template: "Oi {{apelido}}",
			data:     map[string]string{"nome": "Maria"},
			want:     "Oi {{apelido}}",
		},
		{
			name:     "empty value",
			template: "Oi {{nome}}!",
			data:     map[string]string{"nome": ""},
			want:     "Oi !",
		},
		{
			name:     "no macros",
			template: "Promoção de hoje",
			data:     map[string]string{"nome": "Maria"},
			want:     "Promoção de hoje",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderTemplate(tt.template, tt.data); got != tt.want {
				t.Errorf("RenderTemplate(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestRenderForContact(t *testing.T) {
	if got := RenderForContact("Olá {{nome}}", "João"); got != "Olá João" {
		t.Errorf("RenderForContact = %q, want %q", got, "Olá João")
	}
}
