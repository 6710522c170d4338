package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Postgres fills IDs through the gen_random_uuid() column default. The hooks
// below keep inserts working on databases without that function (the sqlite
// driver used in tests) by assigning the UUID client-side first.

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error              { assignID(&u.ID); return nil }
func (t *RefreshToken) BeforeCreate(*gorm.DB) error      { assignID(&t.ID); return nil }
func (r *Role) BeforeCreate(*gorm.DB) error              { assignID(&r.ID); return nil }
func (p *Permission) BeforeCreate(*gorm.DB) error        { assignID(&p.ID); return nil }
func (r *PurchaseRequest) BeforeCreate(*gorm.DB) error   { assignID(&r.ID); return nil }
func (o *Offer) BeforeCreate(*gorm.DB) error             { assignID(&o.ID); return nil }
func (k *IdempotencyKey) BeforeCreate(*gorm.DB) error    { assignID(&k.ID); return nil }
func (i *PurchaseInvoice) BeforeCreate(*gorm.DB) error   { assignID(&i.ID); return nil }
func (s *Supplier) BeforeCreate(*gorm.DB) error          { assignID(&s.ID); return nil }
func (l *LeaveRequest) BeforeCreate(*gorm.DB) error      { assignID(&l.ID); return nil }
func (d *Device) BeforeCreate(*gorm.DB) error            { assignID(&d.ID); return nil }
func (f *FaultLog) BeforeCreate(*gorm.DB) error          { assignID(&f.ID); return nil }
func (p *PeriodicControlPlan) BeforeCreate(*gorm.DB) error { assignID(&p.ID); return nil }
func (l *PeriodicControlLog) BeforeCreate(*gorm.DB) error  { assignID(&l.ID); return nil }
func (m *MaintenancePlan) BeforeCreate(*gorm.DB) error   { assignID(&m.ID); return nil }
func (p *Project) BeforeCreate(*gorm.DB) error           { assignID(&p.ID); return nil }
func (i *ProjectInvoice) BeforeCreate(*gorm.DB) error    { assignID(&i.ID); return nil }
func (i *Idea) BeforeCreate(*gorm.DB) error              { assignID(&i.ID); return nil }
func (v *IdeaVote) BeforeCreate(*gorm.DB) error          { assignID(&v.ID); return nil }
func (a *AuditLog) BeforeCreate(*gorm.DB) error          { assignID(&a.ID); return nil }
