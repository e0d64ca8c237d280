package portfolio

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSkills is the seed content of an empty store.
func DefaultSkills() []*Skill {
	seed := []Skill{
		{Name: "3D & WebGL", Category: "Frontend", Proficiency: 95,
			Technologies: []string{"Three.js", "WebGL", "Blender", "GSAP"}},
		{Name: "AI Integration", Category: "AI/ML", Proficiency: 88,
			Technologies: []string{"OpenAI API", "TensorFlow.js", "ML5.js"}},
		{Name: "Frontend", Category: "Frontend", Proficiency: 98,
			Technologies: []string{"React", "Next.js", "TypeScript", "Tailwind"}},
		{Name: "Backend", Category: "Backend", Proficiency: 92,
			Technologies: []string{"Node.js", "Python", "PostgreSQL", "Redis"}},
	}

	out := make([]*Skill, len(seed))
	for i := range seed {
		s := seed[i]
		s.ID = uuid.NewString()
		s.IsVisible = true
		s.SortOrder = i + 1
		out[i] = &s
	}
	return out
}

// DefaultProjects is the seed content of an empty store.
func DefaultProjects(now time.Time) []*Project {
	link := func(s string) *string { return &s }

	seed := []Project{
		{
			Title:        "3D Analytics Dashboard",
			Description:  "Real-time data visualization platform with interactive 3D charts, WebGL rendering, and AI-powered insights.",
			ImageURL:     link("https://images.unsplash.com/photo-1551288049-bebda4e38f71?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&h=400"),
			Technologies: []string{"Three.js", "D3.js", "WebSockets", "AI/ML"},
			LiveURL:      link("#"),
			GithubURL:    link("#"),
		},
		{
			Title:        "AI Shopping Experience",
			Description:  "Next-generation e-commerce platform with AI product recommendations, voice search, AR try-on features.",
			ImageURL:     link("https://images.unsplash.com/photo-1556742049-0cfed4f6a45d?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&h=400"),
			Technologies: []string{"Next.js", "OpenAI", "WebRTC", "AR.js"},
			LiveURL:      link("#"),
			CaseStudyURL: link("#"),
		},
	}

	out := make([]*Project, len(seed))
	for i := range seed {
		p := seed[i]
		p.ID = uuid.NewString()
		p.IsFeatured = true
		p.SortOrder = i + 1
		p.CreatedAt = now.UTC()
		out[i] = &p
	}
	return out
}
