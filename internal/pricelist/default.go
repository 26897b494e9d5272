package pricelist

func fptr(f float64) *float64 { return &f }

// Default returns the built-in general price table used when a contractor has
// no stored general list. Prices are EUR without VAT.
func Default() PriceList {
	return PriceList{
		ID:      "default",
		Name:    "Základný cenník",
		General: true,
		Work: []Item{
			{ID: "w-painting", Name: "Maľovanie stien", Unit: "m2", Price: 3.50},
			{ID: "w-plastering", Name: "Stierkovanie", Unit: "m2", Price: 7.00},
			{ID: "w-tiling", Name: "Obklad a dlažba", Unit: "m2", Price: 22.00},
			{ID: "w-screed", Name: "Poter", Unit: "m2", Price: 9.50},
			{ID: "w-partition", Name: "Murovanie priečok", Unit: "m2", Price: 18.00},
			{ID: "w-demolition", Name: "Búracie práce", Unit: "hod", Price: 15.00},
		},
		Material: []Item{
			{ID: "m-paint", Name: "Interiérová farba", Unit: "bal", Price: 32.00, Capacity: fptr(35)},
			{ID: "m-plaster", Name: "Stierka", Unit: "vrece", Price: 14.50, Capacity: fptr(8)},
			{ID: "m-adhesive", Name: "Lepidlo na obklad", Unit: "vrece", Price: 9.90, Capacity: fptr(5)},
			{ID: "m-screed-mix", Name: "Poterová zmes", Unit: "vrece", Price: 6.80, Capacity: fptr(4)},
			{ID: "m-brick", Name: "Tehla priečková", Unit: "ks", Price: 1.25},
		},
		Installations: []Item{
			{ID: "i-outlet", Name: "Zásuvka kompletná", Unit: "ks", Price: 12.00},
			{ID: "i-switch", Name: "Vypínač kompletný", Unit: "ks", Price: 11.00},
			{ID: "i-radiator", Name: "Montáž radiátora", Unit: "ks", Price: 85.00},
			{ID: "i-sink", Name: "Montáž umývadla", Unit: "ks", Price: 60.00},
		},
		Others: []Item{
			{ID: "o-transport", Name: "Doprava", Unit: "km", Price: 0.60},
			{ID: "o-waste", Name: "Odvoz sute", Unit: "t", Price: 45.00},
		},
	}
}
