// internal/app/features/couples/templates.go
package couples

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "couples",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
