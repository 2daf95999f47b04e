package heuristics

import (
	"github.com/sells-group/dimfreight/internal/geometry"
)

var (
	tableRe        = word(`dining tables?|kitchen tables?|coffee tables?|cocktail tables?|end tables?|side tables?|accent tables?|console tables?|sofa tables?|entry(?:way)? tables?|writing desks?|desks?|tables?`)
	tableExcludeRe = word(`table ?lamps?|desk ?lamps?|tablecloths?|table ?runners?|table linens?|placemats?|changing tables?|bedside tables?|table saws?|tabletop decor|desk organizers?|desk accessories|desk chairs?|standing desk converters?`)
)

var tableRules = []rule{
	{"dining", word(`dining|kitchen`), 9},
	{"coffee", word(`coffee|cocktail`), 4.5},
	{"console", word(`console|sofa tables?|entry(?:way)?`), 4},
	{"end", word(`end tables?|side tables?|accent tables?`), 2.5},
	{"desk", word(`desks?`), 7},
}

const (
	tablePanelCrateIn = 6.0
	tableLegBoxIn     = 8.0
	tableDefaultFt3   = 6.0
)

func estimateFlatpackTable(in Input) *Result {
	if !matches(in.Head, tableRe, tableExcludeRe) {
		return nil
	}

	subtype, cuft := "table", tableDefaultFt3
	if r, ok := firstRule(in.Head, tableRules); ok {
		subtype, cuft = r.name, r.cuft
	}

	d := in.Facts.AssembledDims
	if d.Valid() {
		// Top panel crate plus a separate leg carton.
		panel := (d.LengthIn + 2) * (d.WidthIn + 2) * tablePanelCrateIn
		legs := (d.HeightIn + 2) * tableLegBoxIn * tableLegBoxIn
		return &Result{
			Family: "flatpack_table",
			Cuft:   geometry.Round2(geometry.CubicInchesToFeet(panel + legs)),
			Meta:   map[string]any{"subtype": subtype, "method": "assembled_dims"},
		}
	}

	return &Result{
		Family: "flatpack_table",
		Cuft:   cuft,
		Meta:   map[string]any{"subtype": subtype, "method": "constant"},
	}
}

var (
	sofaRe        = word(`sectionals?|sofas?|couch(?:es)?|loveseats?|love seats?|settees?|futons?`)
	sofaExcludeRe = word(`sofa covers?|couch covers?|slipcovers?|sofa tables?`)
	sectionalRe   = word(`sectionals?|modular sofas?`)
	loveseatRe    = word(`loveseats?|love seats?|settees?`)
)

// Sofa volumes are flat per subtype; listings rarely expose true carton dims.
const (
	sectionalFt3 = 55.0
	loveseatFt3  = 35.0
	sofaFt3      = 45.0
)

func estimateSofa(in Input) *Result {
	if !matches(in.Head, sofaRe, sofaExcludeRe) {
		return nil
	}

	subtype, cuft := "sofa", sofaFt3
	switch {
	case sectionalRe.MatchString(in.Head):
		subtype, cuft = "sectional", sectionalFt3
	case loveseatRe.MatchString(in.Head):
		subtype, cuft = "loveseat", loveseatFt3
	}

	return &Result{
		Family: "sofa",
		Cuft:   cuft,
		Meta:   map[string]any{"subtype": subtype},
	}
}

var (
	casegoodRe        = word(`dressers?|chests? of drawers|chests?|nightstands?|night stands?|bedside tables?|bookcases?|bookshel(?:f|ves)|shelving units?|cabinets?|sideboards?|buffets?|credenzas?|tv stands?|media consoles?|entertainment centers?|armoires?|wardrobes?|hutch(?:es)?|vanit(?:y|ies)`)
	casegoodExcludeRe = word(`chest freezers?|cabinet (?:hardware|knobs?|pulls?)`)
)

var casegoodRules = []rule{
	{"nightstand", word(`nightstands?|night stands?|bedside tables?`), 4.5},
	{"dresser", word(`dressers?|chests? of drawers|chests?`), 18},
	{"bookcase", word(`bookcases?|bookshel(?:f|ves)|shelving units?`), 10},
	{"sideboard", word(`sideboards?|buffets?|credenzas?`), 16},
	{"media", word(`tv stands?|media consoles?|entertainment centers?`), 12},
	{"wardrobe", word(`armoires?|wardrobes?`), 30},
	{"hutch", word(`hutch(?:es)?`), 20},
	{"vanity", word(`vanit(?:y|ies)`), 14},
	{"cabinet", word(`cabinets?`), 10},
}

const (
	casegoodPadIn      = 4.0
	casegoodFloorFt3   = 2.0
	casegoodDefaultFt3 = 10.0
)

func estimateCasegood(in Input) *Result {
	if !matches(in.Head, casegoodRe, casegoodExcludeRe) {
		return nil
	}

	subtype, cuft := "casegood", casegoodDefaultFt3
	if r, ok := firstRule(in.Head, casegoodRules); ok {
		subtype, cuft = r.name, r.cuft
	}

	if d := in.Facts.AssembledDims; d.Valid() {
		return &Result{
			Family: "casegood",
			Cuft:   paddedBoxFt3(d, casegoodPadIn, casegoodFloorFt3),
			Meta:   map[string]any{"subtype": subtype, "method": "assembled_dims"},
		}
	}

	return &Result{
		Family: "casegood",
		Cuft:   cuft,
		Meta:   map[string]any{"subtype": subtype, "method": "constant"},
	}
}

var (
	seatingRe        = word(`recliners?|rocking chairs?|rockers?|accent chairs?|arm ?chairs?|club chairs?|lounge chairs?|wingbacks?|office chairs?|desk chairs?|gaming chairs?|dining chairs?|side chairs?|bar ?stools?|counter stools?|stools?|benches|bench|ottomans?|poufs?|chaise(?: lounges?)?|chairs?`)
	seatingExcludeRe = word(`high ?chairs?|weight bench(?:es)?|workout bench(?:es)?|exercise bench(?:es)?|chair covers?|chair cushions?|chair pads?|chair mats?`)
)

var seatingRules = []rule{
	{"recliner", word(`recliners?|rocking chairs?|rockers?`), 20},
	{"chaise", word(`chaise(?: lounges?)?`), 18},
	{"accent", word(`accent chairs?|arm ?chairs?|club chairs?|lounge chairs?|wingbacks?`), 12},
	{"office", word(`office chairs?|desk chairs?|gaming chairs?`), 6},
	{"dining", word(`dining chairs?|side chairs?`), 4},
	{"stool", word(`bar ?stools?|counter stools?|stools?`), 3},
	{"bench", word(`benches|bench`), 6},
	{"ottoman", word(`ottomans?|poufs?`), 4},
}

const seatingDefaultFt3 = 5.0

func estimateSeating(in Input) *Result {
	if !matches(in.Head, seatingRe, seatingExcludeRe) {
		return nil
	}

	subtype, unit := "chair", seatingDefaultFt3
	if r, ok := firstRule(in.Head, seatingRules); ok {
		subtype, unit = r.name, r.cuft
	}
	count := itemCount(in.Text)

	return &Result{
		Family: "seating",
		Cuft:   geometry.Round2(unit * float64(count)),
		Meta:   map[string]any{"subtype": subtype, "count": count, "unit_cuft": unit},
	}
}
