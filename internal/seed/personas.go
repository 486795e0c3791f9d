package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Persona is a named demo account loaded from a YAML fixture. Personas get
// stable usernames so demo flows and docs can refer to them.
type Persona struct {
	Username    string   `yaml:"username"`
	DisplayName string   `yaml:"display_name"`
	Bio         string   `yaml:"bio"`
	IsPrivate   bool     `yaml:"is_private"`
	Follows     []string `yaml:"follows"`
	Posts       []string `yaml:"posts"`
}

type personaFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadPersonas reads persona fixtures from a YAML file.
func LoadPersonas(path string) ([]Persona, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading personas file: %w", err)
	}

	var file personaFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing personas file: %w", err)
	}
	if len(file.Personas) == 0 {
		return nil, fmt.Errorf("personas file %s contains no personas", path)
	}
	return file.Personas, nil
}

// DefaultPersonas returns the built-in persona set used when no fixture
// file is given.
func DefaultPersonas() []Persona {
	return []Persona{
		{
			Username:    "ada",
			DisplayName: "Ada L.",
			Bio:         "First to post, last to expire.",
			Follows:     []string{"grace", "linus"},
			Posts: []string{
				"Working on something new. It won't last long, catch it while you can.",
				"Every post is a countdown. Make it count.",
			},
		},
		{
			Username:    "grace",
			DisplayName: "Grace H.",
			Bio:         "Ships daily.",
			Follows:     []string{"ada"},
			Posts: []string{
				"Debugging is like archaeology, except the ruins are mine.",
			},
		},
		{
			Username:    "linus",
			DisplayName: "Linus T.",
			Bio:         "Posting from the terminal.",
			IsPrivate:   true,
			Follows:     []string{"ada", "grace"},
			Posts: []string{
				"Private account, public opinions.",
			},
		},
	}
}
