package reconciliation

import "smsledger/internal/models"

// snapshot is the sweep's working copy of the ledger. Both passes read and
// update it so the second pass sees the first pass's merges.
type snapshot struct {
	order []string
	byID  map[string]*models.Transaction
}

func newSnapshot(txns []models.Transaction) *snapshot {
	s := &snapshot{
		order: make([]string, 0, len(txns)),
		byID:  make(map[string]*models.Transaction, len(txns)),
	}
	for i := range txns {
		t := txns[i]
		s.order = append(s.order, t.ID)
		s.byID[t.ID] = &t
	}
	return s
}

func (s *snapshot) get(id string) (*models.Transaction, bool) {
	t, ok := s.byID[id]
	return t, ok
}

func (s *snapshot) replace(t models.Transaction) {
	if _, ok := s.byID[t.ID]; ok {
		s.byID[t.ID] = &t
	}
}

func (s *snapshot) remove(id string) {
	delete(s.byID, id)
}

// referenceGroups returns records sharing a non-empty reference number,
// groups of two or more only, in order of first appearance.
func (s *snapshot) referenceGroups() [][]*models.Transaction {
	index := make(map[string]int)
	var groups [][]*models.Transaction
	for _, id := range s.order {
		t, ok := s.byID[id]
		if !ok || t.ReferenceNumber == "" {
			continue
		}
		i, seen := index[t.ReferenceNumber]
		if !seen {
			i = len(groups)
			index[t.ReferenceNumber] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], t)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g) >= 2 {
			out = append(out, g)
		}
	}
	return out
}
