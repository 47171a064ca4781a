package tutor

import "encoding/json"

// Subject 一个课程方向（例如小学数学），带有有序的主题列表和学习进度
type Subject struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Level    string   `json:"level"`
	Topics   []string `json:"topics"`
	Progress int      `json:"progress"`
}

// Catalog keeps subjects keyed by id while remembering insertion order for display.
type Catalog struct {
	order    []string
	subjects map[string]*Subject
}

func NewCatalog(subjects ...Subject) *Catalog {
	c := &Catalog{subjects: make(map[string]*Subject, len(subjects))}
	for _, s := range subjects {
		c.Add(s)
	}
	return c
}

// Add inserts a subject. Re-adding an existing id replaces it in place.
func (c *Catalog) Add(s Subject) {
	s.Topics = append([]string(nil), s.Topics...)
	s.Progress = Clamp(s.Progress)
	if _, ok := c.subjects[s.ID]; !ok {
		c.order = append(c.order, s.ID)
	}
	c.subjects[s.ID] = &s
}

func (c *Catalog) Get(id string) (*Subject, bool) {
	s, ok := c.subjects[id]
	return s, ok
}

func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

func (c *Catalog) Len() int {
	return len(c.order)
}

// Subjects returns copies in insertion order.
func (c *Catalog) Subjects() []Subject {
	out := make([]Subject, 0, len(c.order))
	for _, id := range c.order {
		s := *c.subjects[id]
		s.Topics = append([]string(nil), s.Topics...)
		out = append(out, s)
	}
	return out
}

func (c *Catalog) Clone() *Catalog {
	return NewCatalog(c.Subjects()...)
}

// DefaultCatalog 启动时的默认课程目录，所有进度从 0 开始
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Subject{
			ID:    "math-primary",
			Name:  "Primary Mathematics",
			Level: "Primary",
			Topics: []string{
				"Basic Addition and Subtraction",
				"Multiplication Tables",
				"Division Basics",
				"Fractions Introduction",
				"Measurement Units",
				"Basic Geometry",
			},
		},
		Subject{
			ID:    "math-secondary",
			Name:  "Secondary Mathematics",
			Level: "Secondary",
			Topics: []string{
				"Algebra Fundamentals",
				"Linear Equations",
				"Quadratic Equations",
				"Coordinate Geometry",
				"Trigonometry Basics",
				"Statistics and Probability",
			},
		},
		Subject{
			ID:    "science-primary",
			Name:  "Primary Science",
			Level: "Primary",
			Topics: []string{
				"Living Things",
				"Plants and Animals",
				"Human Body",
				"Water and Air",
				"Light and Sound",
				"Earth and Space",
			},
		},
		Subject{
			ID:    "science-secondary",
			Name:  "Secondary Science",
			Level: "Secondary",
			Topics: []string{
				"Physics: Forces and Motion",
				"Chemistry: Elements and Compounds",
				"Biology: Cells and Life Processes",
				"Ecology and Environment",
				"Energy and Electricity",
				"Scientific Method and Experiments",
			},
		},
	)
}

func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Subjects())
}

func (c *Catalog) UnmarshalJSON(data []byte) error {
	var subjects []Subject
	if err := json.Unmarshal(data, &subjects); err != nil {
		return err
	}
	*c = *NewCatalog(subjects...)
	return nil
}
