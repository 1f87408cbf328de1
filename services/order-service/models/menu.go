package models

import (
	apperrors "github.com/BeckerFac/restaurant-ordering/services/common/errors"
)

// MenuChoice is one selectable value of a MenuOption, with its surcharge.
type MenuChoice struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// MenuOption is a customization group such as "Size" or "Extras".
type MenuOption struct {
	Name    string       `json:"name"`
	Choices []MenuChoice `json:"choices"`
}

// MenuItem is a dish as offered on a restaurant's menu.
type MenuItem struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Price       float64      `json:"price"`
	Category    string       `json:"category,omitempty"`
	Image       string       `json:"image,omitempty"`
	Available   *bool        `json:"available,omitempty"`
	Options     []MenuOption `json:"options,omitempty"`
}

// IsAvailable treats a missing flag as available.
func (m MenuItem) IsAvailable() bool {
	return m.Available == nil || *m.Available
}

// Snapshot captures id, name and base price for an order line.
func (m MenuItem) Snapshot() MenuItemSnapshot {
	return MenuItemSnapshot{ID: m.ID, Name: m.Name, Price: m.Price}
}

// NewOrderLine prices one line: (base price + chosen surcharges) x quantity.
// selections maps option name to choice name.
func NewOrderLine(item MenuItem, quantity int, selections map[string]string) (OrderLine, error) {
	if item.ID == "" || item.Name == "" {
		return OrderLine{}, apperrors.Validationf("menu item id and name are required")
	}
	if !item.IsAvailable() {
		return OrderLine{}, apperrors.Validationf("menu item %s is not available", item.ID)
	}
	if quantity <= 0 {
		return OrderLine{}, apperrors.Validationf("quantity for %s must be positive", item.ID)
	}

	unit := item.Price
	customizations := make(map[string]string, len(selections))
	for optionName, choiceName := range selections {
		choice, ok := findChoice(item.Options, optionName, choiceName)
		if !ok {
			return OrderLine{}, apperrors.Validationf("menu item %s has no choice %q for option %q", item.ID, choiceName, optionName)
		}
		unit += choice.Price
		customizations[optionName] = choice.Name
	}

	return OrderLine{
		MenuItem:       item.Snapshot(),
		Quantity:       quantity,
		Customizations: customizations,
		TotalPrice:     RoundMoney(unit * float64(quantity)),
	}, nil
}

func findChoice(options []MenuOption, optionName, choiceName string) (MenuChoice, bool) {
	for _, o := range options {
		if o.Name != optionName {
			continue
		}
		for _, c := range o.Choices {
			if c.Name == choiceName {
				return c, true
			}
		}
	}
	return MenuChoice{}, false
}
