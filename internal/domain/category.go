package domain

// CategoryID identifies a material category in the fixed catalog.
type CategoryID string

const (
	CategoryTMTSteel       CategoryID = "tmt_steel"
	CategoryMildSteel      CategoryID = "mild_steel"
	CategoryStainlessSteel CategoryID = "stainless_steel"
	CategoryCement         CategoryID = "cement"
	CategoryAggregates     CategoryID = "aggregates"
	CategoryBricks         CategoryID = "bricks"
	CategoryElectrical     CategoryID = "electrical"
	CategoryPlumbing       CategoryID = "plumbing"
	CategoryPaints         CategoryID = "paints"
	CategoryHardware       CategoryID = "hardware"

	// CategoryGeneral is the fallback when no keyword rule matches.
	CategoryGeneral CategoryID = "general"
)

// Category carries presentation metadata for one catalog entry.
type Category struct {
	ID          CategoryID `json:"id"`
	Name        string     `json:"name"`
	Icon        string     `json:"icon"`
	Description string     `json:"description"`
}

var catalog = []Category{
	{CategoryTMTSteel, "TMT Steel Bars", "🏗️", "Fe 500/550D TMT rebars for RCC construction"},
	{CategoryMildSteel, "Mild Steel", "⚙️", "MS angles, channels, plates, and flats"},
	{CategoryStainlessSteel, "Stainless Steel", "✨", "SS 304/316 sheets, pipes, and coils"},
	{CategoryCement, "Cement", "🏭", "OPC 43/53 and PPC from major brands"},
	{CategoryAggregates, "Aggregates", "🪨", "M-sand, river sand, gravel, and crushed stone"},
	{CategoryBricks, "Bricks & Blocks", "🧱", "Red clay bricks, fly ash bricks, AAC blocks"},
	{CategoryElectrical, "Electrical", "💡", "Wires, cables, switchgear, and MCBs"},
	{CategoryPlumbing, "Plumbing", "🔧", "CPVC/UPVC pipes and fittings"},
	{CategoryPaints, "Paints", "🎨", "Primers, putty, and interior/exterior emulsions"},
	{CategoryHardware, "Hardware", "🔩", "Fasteners, tools, and general site hardware"},
}

// Categories returns the fixed material catalog in display order.
func Categories() []Category {
	out := make([]Category, len(catalog))
	copy(out, catalog)
	return out
}

// CategoryByID looks up a catalog entry.
func CategoryByID(id CategoryID) (Category, bool) {
	for _, c := range catalog {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// DisplayName returns the catalog display name, or the raw ID for entries
// outside the catalog (e.g. "general").
func (id CategoryID) DisplayName() string {
	if c, ok := CategoryByID(id); ok {
		return c.Name
	}
	if id == CategoryGeneral || id == "" {
		return "construction materials"
	}
	return string(id)
}
