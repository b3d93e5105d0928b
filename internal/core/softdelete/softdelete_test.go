package softdelete

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSoftDelete(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SoftDelete Suite")
}

type SQLiteContact struct {
	ID        int64      `gorm:"primaryKey"`
	Name      string     `gorm:"not null"`
	Active    bool       `gorm:"column:active;default:true"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (SQLiteContact) TableName() string {
	return "contacts"
}

var _ = Describe("SoftDelete", func() {
	var db *gorm.DB

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.AutoMigrate(&SQLiteContact{})).To(Succeed())
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	seed := func(name string, active bool, deletedAt *time.Time) *SQLiteContact {
		c := &SQLiteContact{
			Name:      name,
			Active:    active,
			DeletedAt: deletedAt,
			CreatedAt: time.Now().Add(-time.Hour),
			UpdatedAt: time.Now().Add(-time.Minute),
		}
		Expect(db.Create(c).Error).To(Succeed())
		return c
	}

	countVisible := func(mode Mode) int64 {
		var n int64
		Expect(db.Model(&SQLiteContact{}).Scopes(Visible(mode)).Count(&n).Error).To(Succeed())
		return n
	}

	Describe("Visible", func() {
		It("should filter by deletion timestamp per mode", func() {
			now := time.Now()
			seed("live", true, nil)
			seed("gone", true, &now)

			Expect(countVisible(ActiveOnly)).To(Equal(int64(1)))
			Expect(countVisible(DeletedOnly)).To(Equal(int64(1)))
			Expect(countVisible(All)).To(Equal(int64(2)))
		})
	})

	Describe("MarkDeleted and MarkRestored", func() {
		It("should stamp and clear deleted_at", func() {
			c := seed("live", true, nil)

			Expect(MarkDeleted(db, &SQLiteContact{}, c.ID)).To(Succeed())
			Expect(countVisible(ActiveOnly)).To(Equal(int64(0)))

			Expect(MarkRestored(db, &SQLiteContact{}, c.ID)).To(Succeed())
			Expect(countVisible(ActiveOnly)).To(Equal(int64(1)))
		})
	})

	Describe("Repair", func() {
		It("should backfill deleted_at for legacy active-flag deletes", func() {
			legacy := seed("legacy", false, nil)
			seed("live", true, nil)

			// legacy row slips through the ActiveOnly filter before repair
			Expect(countVisible(ActiveOnly)).To(Equal(int64(2)))

			n, err := Repair(db, "contacts")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			Expect(countVisible(ActiveOnly)).To(Equal(int64(1)))

			var fixed SQLiteContact
			Expect(db.First(&fixed, legacy.ID).Error).To(Succeed())
			Expect(fixed.DeletedAt).NotTo(BeNil())
			Expect(fixed.DeletedAt.Unix()).To(Equal(fixed.UpdatedAt.Unix()))
		})

		It("should be idempotent", func() {
			seed("legacy", false, nil)

			n, err := Repair(db, "contacts")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			n, err = Repair(db, "contacts")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})

		It("should not touch rows that were deleted properly", func() {
			now := time.Now()
			seed("gone", false, &now)

			n, err := Repair(db, "contacts")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})
	})
})
