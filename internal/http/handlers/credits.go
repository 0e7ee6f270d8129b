package handlers

import (
	"net/http"
)

// Me returns the caller's account profile.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	account, err := a.Accounts.GetByID(r.Context(), accountID)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":      account.ID,
		"email":   account.Email,
		"name":    account.Name,
		"credits": account.Credits,
	})
}

// MeCredits reports the caller's credit balance. Anonymous callers have no
// balance and see zero.
func (a *App) MeCredits(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.json(w, http.StatusOK, map[string]any{"credits": 0})
		return
	}
	balance, err := a.Ledger.Balance(r.Context(), accountID)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"credits": balance})
}
