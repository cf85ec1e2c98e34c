// internal/engine/rules/catalog.go
package rules

import "sort"

// Intent is a named category of user request with trigger keywords and a
// canned reply. Higher priority wins when a message could match several
// intents; definition order breaks ties.
type Intent struct {
	Name             string
	Keywords         []string
	ResponseTemplate string
	Priority         int
}

// Catalog is an immutable, pre-sorted sequence of intents. The sort
// (priority descending, stable on definition order) happens once at
// construction, never per call, and the catalog is safe for unlimited
// concurrent readers.
type Catalog struct {
	intents []Intent
	// normalized keyword lists, index-aligned with intents
	keywords [][]string
}

// NewCatalog builds a catalog from intent definitions. Keywords are
// normalized the same way messages are, so matching compares like with like.
func NewCatalog(intents []Intent) *Catalog {
	sorted := make([]Intent, len(intents))
	copy(sorted, intents)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	keywords := make([][]string, len(sorted))
	for i, intent := range sorted {
		kws := make([]string, 0, len(intent.Keywords))
		for _, kw := range intent.Keywords {
			if n := Normalize(kw); n != "" {
				kws = append(kws, n)
			}
		}
		keywords[i] = kws
	}

	return &Catalog{intents: sorted, keywords: keywords}
}

// Intents returns the intents in match order.
func (c *Catalog) Intents() []Intent {
	return c.intents
}

// Len returns the number of intents in the catalog.
func (c *Catalog) Len() int {
	return len(c.intents)
}

// Registry resolves the catalog for a tenant, falling back to the shared
// default. Tenant-specific catalogs are an extension point; today every
// tenant shares the default set.
type Registry struct {
	byTenant map[string]*Catalog
	fallback *Catalog
}

func NewRegistry(fallback *Catalog) *Registry {
	return &Registry{
		byTenant: make(map[string]*Catalog),
		fallback: fallback,
	}
}

// Register installs a tenant-specific catalog. Call during startup only;
// the registry is read-only once serving.
func (r *Registry) Register(tenantID string, c *Catalog) {
	r.byTenant[tenantID] = c
}

// ForTenant returns the tenant's catalog or the shared default.
func (r *Registry) ForTenant(tenantID string) *Catalog {
	if c, ok := r.byTenant[tenantID]; ok {
		return c
	}
	return r.fallback
}

// DefaultCatalog returns the built-in Danish intent set.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultIntents)
}

var defaultIntents = []Intent{
	{
		Name: "greeting",
		Keywords: []string{
			"hej", "goddag", "hello", "hejsa", "halløj", "hey",
			"godmorgen", "godaften", "hi", "davs", "dav",
		},
		ResponseTemplate: "Hej! Hvordan kan jeg hjælpe dig i dag?",
		Priority:         1,
	},
	{
		Name: "opening_hours",
		Keywords: []string{
			"åbningstid", "åbningstider", "åbent", "lukket", "åbner", "lukker",
			"hvornår åbner", "hvornår lukker", "åben", "lukke",
			"opening", "hours", "åbent i dag",
		},
		ResponseTemplate: "Vi har åbent mandag-fredag kl. 09:00–17:00, weekend 10:00-14:00.",
		Priority:         2,
	},
	{
		Name: "prices",
		Keywords: []string{
			"pris", "priser", "koster", "honorar", "tilbud",
			"hvad koster", "prisoverslag", "betaling", "betale",
			"kr", "kroner", "pris på",
		},
		ResponseTemplate: "Priser afhænger af den konkrete ydelse. Kontakt os gerne for et skræddersyet tilbud.",
		Priority:         2,
	},
	{
		Name: "booking",
		Keywords: []string{
			"book", "booking", "bestil", "aftale", "reservation",
			"tid", "book en tid", "reservere", "time", "bestille",
		},
		ResponseTemplate: "Du kan booke en tid via vores hjemmeside eller ringe til os.",
		Priority:         2,
	},
	{
		Name: "contact",
		Keywords: []string{
			"kontakt", "telefon", "email", "mail", "nummer", "ring",
			"tlf", "ringe", "kontakte", "få fat i",
		},
		ResponseTemplate: "Du kan kontakte os på telefon +45 12 34 56 78 eller via email kontakt@example.dk.",
		Priority:         2,
	},
	{
		Name: "location",
		Keywords: []string{
			"adresse", "lokation", "finde jer", "hvor ligger",
			"parkering", "beliggenhed", "hvor er",
			"placering", "hvordan finder jeg",
		},
		ResponseTemplate: "Vi holder til på Eksempelvej 12, 1234 By. Der er gratis parkering ved bygningen.",
		Priority:         2,
	},
	{
		Name: "services",
		Keywords: []string{
			"ydelse", "ydelser", "service", "services", "tilbud",
			"laver i", "kan i", "gør i", "hvad laver",
		},
		ResponseTemplate: "Vi tilbyder [indsæt jeres ydelser]. Kontakt os for mere information om en specifik ydelse.",
		Priority:         2,
	},
	{
		Name: "shipping",
		Keywords: []string{
			"forsendelse", "levering", "fragt", "leveringstid",
			"track", "tracking", "sendelse", "levere",
		},
		ResponseTemplate: "Vi leverer typisk inden for 1–3 hverdage. Du modtager tracking når pakken er afsendt.",
		Priority:         2,
	},
	{
		Name: "returns",
		Keywords: []string{
			"returnering", "retur", "bytte", "refusion", "fortryd",
			"returnere", "ombytning", "penge retur",
		},
		ResponseTemplate: "Du har 14 dages returret. Kontakt os, så guider vi dig gennem processen.",
		Priority:         2,
	},
	{
		Name: "order_status",
		Keywords: []string{
			"ordre", "ordrenummer", "min ordre", "ordrestatus",
			"bestilling", "min bestilling", "status", "hvor er",
		},
		ResponseTemplate: "Send gerne dit ordrenummer, så kan vi hjælpe dig med at finde din ordre.",
		Priority:         2,
	},
	{
		Name: "payments",
		Keywords: []string{
			"betaling", "betalingsmetoder", "kort", "mobilepay",
			"faktura", "betale", "betalingsmulighed", "betale med",
		},
		ResponseTemplate: "Vi tager imod kortbetaling, MobilePay og faktura.",
		Priority:         2,
	},
	{
		Name: "goodbye",
		Keywords: []string{
			"farvel", "hej hej", "tak", "tak for hjælpen",
			"bye", "goodbye", "ses", "god dag",
		},
		ResponseTemplate: "Tak fordi du skrev! Kontakt os gerne igen hvis du har flere spørgsmål.",
		Priority:         1,
	},
	{
		Name: "help",
		Keywords: []string{
			"hjælp", "hjælpe", "support", "kundeservice",
			"assistance", "problem", "issue",
		},
		ResponseTemplate: "Jeg er her for at hjælpe! Hvad kan jeg gøre for dig?",
		Priority:         2,
	},
	{
		Name: "human_support",
		Keywords: []string{
			"menneske", "medarbejder", "tale med", "rigtig person",
			"agent", "support", "kundeservice", "ikke robot",
		},
		ResponseTemplate: "Selvfølgelig! Du kan kontakte vores kundeservice på telefon +45 12 34 56 78 eller email kontakt@example.dk.",
		Priority:         3,
	},
}
