package domain

// CreditPackage describes a purchasable credit bundle. Prices are in cents;
// the checkout currency is picked at session-creation time.
type CreditPackage struct {
	ID          string
	AmountCents int64
	Credits     int64
}

// The package catalog is a closed table. Unknown ids are rejected outright,
// never priced at zero.
var creditPackages = map[string]CreditPackage{
	"entrepreneur": {ID: "entrepreneur", AmountCents: 200, Credits: 200},
	"startup":      {ID: "startup", AmountCents: 600, Credits: 800},      // 750 + 50 bonus
	"networking":   {ID: "networking", AmountCents: 1500, Credits: 1700}, // 1600 + 100 bonus
}

// PackageByID resolves a package from the closed catalog.
func PackageByID(id string) (CreditPackage, error) {
	pkg, ok := creditPackages[id]
	if !ok {
		return CreditPackage{}, ErrInvalidPackage
	}
	return pkg, nil
}
