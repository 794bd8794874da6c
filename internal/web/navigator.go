package web

import "sync"

// maxPendingNavigations bounds the targets kept for orders whose browser
// never came back
const maxPendingNavigations = 256

// Navigator records the feedback step each paid order should land on. The
// order-summary, payment-status and feedback handlers consume it.
type Navigator struct {
	mu      sync.Mutex
	pending map[string]string
	order   []string
}

// NewNavigator creates an empty Navigator
func NewNavigator() *Navigator {
	return &Navigator{pending: make(map[string]string)}
}

// ToFeedback implements payment.Navigator. The oldest target is dropped
// once maxPendingNavigations are waiting.
func (n *Navigator) ToFeedback(orderID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.pending[orderID]; !ok {
		n.order = append(n.order, orderID)
	}
	n.pending[orderID] = FeedbackPath(orderID)

	for len(n.order) > maxPendingNavigations {
		delete(n.pending, n.order[0])
		n.order = n.order[1:]
	}
}

// Take returns and forgets the navigation target for orderID
func (n *Navigator) Take(orderID string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	target, ok := n.pending[orderID]
	if !ok {
		return "", false
	}
	delete(n.pending, orderID)
	for i, id := range n.order {
		if id == orderID {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	return target, true
}

// FeedbackPath is the feedback step for orderID
func FeedbackPath(orderID string) string {
	return "/feedback/" + orderID
}
