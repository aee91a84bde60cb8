package domain

// Mensa is a dining facility placed within a larger layout.
type Mensa struct {
	ID   MensaID
	Name string

	// Position and size within the campus layout.
	X      int
	Y      int
	Width  int
	Height int

	Tables []Table
}

// Table is a seating unit owned by exactly one mensa.
//
// The JSON shape is what the layout renderer receives; it is passed through untouched.
type Table struct {
	ID     TableID `json:"id" yaml:"id"`
	X      int     `json:"x" yaml:"x"`
	Y      int     `json:"y" yaml:"y"`
	Width  int     `json:"width" yaml:"width"`
	Height int     `json:"height" yaml:"height"`
	Seats  int     `json:"seats" yaml:"seats"`
}
