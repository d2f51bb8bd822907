package vo

type Heading struct {
	Level int
	Text  string
}

type Structure struct {
	Title    string
	Lang     string
	Headings []Heading
}
