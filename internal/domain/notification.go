package domain

import "context"

// GuestNotification is a pending guest invitation for one event.
// swagger:model GuestNotification
type GuestNotification struct {
	Event *EventSummary `json:"event"`
	Entry *RosterEntry  `json:"entry"`
}

// VendorNotification is one pending service offer addressed to a vendor profile.
// swagger:model VendorNotification
type VendorNotification struct {
	Event  *EventSummary `json:"event"`
	HostID string        `json:"host_id"`
	Offer  *ServiceOffer `json:"offer"`
}

// Notifications groups guest invitations before vendor offers.
// swagger:model Notifications
type Notifications struct {
	Guests  []*GuestNotification  `json:"guests"`
	Vendors []*VendorNotification `json:"vendors"`
}

// ProjectNotifications derives userID's pending invitations and vendorProfileID's
// pending offers from events. Offers on events hosted by userID are skipped so a
// vendor never gets notified about their own event. vendorProfileID may be empty.
func ProjectNotifications(events []*Event, userID, vendorProfileID string) Notifications {
	out := Notifications{
		Guests:  []*GuestNotification{},
		Vendors: []*VendorNotification{},
	}
	for _, e := range events {
		if e == nil {
			continue
		}
		if entry, ok := e.Guest(userID); ok && entry.Status == StatusPending {
			out.Guests = append(out.Guests, &GuestNotification{
				Event: e.Summary(),
				Entry: entry.clone(),
			})
		}
		if vendorProfileID == "" || e.HostID == userID {
			continue
		}
		for _, o := range e.ServiceOffers {
			if o.VendorProfileID != vendorProfileID || o.Status != StatusPending {
				continue
			}
			out.Vendors = append(out.Vendors, &VendorNotification{
				Event:  e.Summary(),
				HostID: e.HostID,
				Offer:  o.clone(),
			})
		}
	}
	return out
}

// Notifier builds notification views at read time.
type Notifier interface {
	Project(ctx context.Context, userID, vendorProfileID string) (Notifications, error)
}
