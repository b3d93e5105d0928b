package postgres

import (
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/viaviktor/rfisys/internal/accessrequest"
	model "github.com/viaviktor/rfisys/internal/core/datamodel/accessrequest"
	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	regtokenmodel "github.com/viaviktor/rfisys/internal/core/datamodel/regtoken"
	stakeholdermodel "github.com/viaviktor/rfisys/internal/core/datamodel/stakeholder"
)

func TestAccessRequestRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "AccessRequest Repository Suite")
}

// schema created by hand: the production DDL lives in db/migrations and
// uses postgres defaults sqlite cannot parse
const testSchema = `
CREATE TABLE clients (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    deleted_at DATETIME,
    created_at DATETIME,
    updated_at DATETIME
);
CREATE TABLE projects (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    client_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    number TEXT,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    deleted_at DATETIME,
    created_at DATETIME,
    updated_at DATETIME
);
CREATE TABLE contacts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    client_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    phone TEXT,
    password_hash TEXT,
    role TEXT,
    email_verified BOOLEAN NOT NULL DEFAULT FALSE,
    registration_eligible BOOLEAN NOT NULL DEFAULT FALSE,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    last_login DATETIME,
    deleted_at DATETIME,
    created_at DATETIME,
    updated_at DATETIME
);
CREATE UNIQUE INDEX idx_contacts_email_active ON contacts (email) WHERE deleted_at IS NULL;
CREATE TABLE project_stakeholders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL,
    contact_id INTEGER NOT NULL,
    stakeholder_level INTEGER NOT NULL DEFAULT 1,
    added_by_user_id INTEGER,
    added_by_contact_id INTEGER,
    auto_approved BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME,
    UNIQUE (project_id, contact_id)
);
CREATE TABLE access_requests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    contact_id INTEGER NOT NULL,
    project_id INTEGER NOT NULL,
    requested_role TEXT NOT NULL,
    justification TEXT,
    auto_approval_reason TEXT,
    status TEXT NOT NULL DEFAULT 'PENDING',
    processed_at DATETIME,
    processed_by_id INTEGER,
    created_at DATETIME,
    updated_at DATETIME
);
CREATE TABLE registration_tokens (
    token TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    contact_id INTEGER NOT NULL,
    project_ids TEXT NOT NULL DEFAULT '[]',
    token_type TEXT NOT NULL DEFAULT 'INVITATION',
    expires_at DATETIME NOT NULL,
    used_at DATETIME,
    created_at DATETIME
);
`

var _ = Describe("Repository", func() {
	var (
		db   *gorm.DB
		repo accessrequest.Repository
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.Exec(testSchema).Error).To(Succeed())

		repo = NewRepository(db)

		Expect(db.Exec("INSERT INTO clients (id, name) VALUES (1, 'Acme')").Error).To(Succeed())
		Expect(db.Exec("INSERT INTO projects (id, client_id, name) VALUES (10, 1, 'North Tower')").Error).To(Succeed())
		Expect(db.Exec("INSERT INTO projects (id, client_id, name) VALUES (11, 1, 'Garage')").Error).To(Succeed())
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	seedContact := func(id int64, email string) {
		Expect(db.Create(&contactmodel.Contact{
			ID: id, ClientID: 1, Name: "C", Email: email, Active: true,
		}).Error).To(Succeed())
	}

	Describe("soft-delete visibility", func() {
		It("hides deleted projects", func() {
			now := time.Now()
			Expect(db.Exec("UPDATE projects SET deleted_at = ? WHERE id = 11", now).Error).To(Succeed())

			p, err := repo.GetProject(11)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeNil())
		})

		It("hides deleted contacts from lookup by email", func() {
			seedContact(5, "gone@acme.com")
			now := time.Now()
			Expect(db.Exec("UPDATE contacts SET deleted_at = ? WHERE id = 5", now).Error).To(Succeed())

			c, err := repo.FindContactByEmail("gone@acme.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(BeNil())
		})
	})

	Describe("contact email uniqueness", func() {
		It("rejects a second live contact with the same email", func() {
			seedContact(5, "dup@acme.com")

			err := db.Create(&contactmodel.Contact{
				ID: 6, ClientID: 1, Name: "C", Email: "dup@acme.com", Active: true,
			}).Error
			Expect(err).To(HaveOccurred())
		})

		It("frees the email once the holder is soft-deleted", func() {
			seedContact(5, "dup@acme.com")
			now := time.Now()
			Expect(db.Exec("UPDATE contacts SET deleted_at = ? WHERE id = 5", now).Error).To(Succeed())

			seedContact(6, "dup@acme.com")
		})
	})

	Describe("MarkProcessed", func() {
		var requestID int64

		BeforeEach(func() {
			seedContact(5, "c@acme.com")
			req := &model.AccessRequest{
				ContactID: 5, ProjectID: 10,
				RequestedRole: contactmodel.RoleStakeholderL1,
				Status:        model.StatusPending,
			}
			Expect(repo.CreateRequest(req)).To(Succeed())
			requestID = req.ID
		})

		It("lets only the first decision win", func() {
			won, err := repo.MarkProcessed(requestID, model.StatusApproved, 1, time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(won).To(BeTrue())

			won, err = repo.MarkProcessed(requestID, model.StatusRejected, 2, time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(won).To(BeFalse())

			req, err := repo.GetRequest(requestID)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(model.StatusApproved))
			Expect(req.ProcessedByID).To(HaveValue(Equal(int64(1))))
		})
	})

	Describe("HasPending", func() {
		It("sees only PENDING rows for the pair", func() {
			seedContact(5, "c@acme.com")
			now := time.Now()
			Expect(repo.CreateRequest(&model.AccessRequest{
				ContactID: 5, ProjectID: 10,
				RequestedRole: contactmodel.RoleStakeholderL1,
				Status:        model.StatusRejected, ProcessedAt: &now,
			})).To(Succeed())

			pending, err := repo.HasPending(5, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeFalse())

			Expect(repo.CreateRequest(&model.AccessRequest{
				ContactID: 5, ProjectID: 10,
				RequestedRole: contactmodel.RoleStakeholderL1,
				Status:        model.StatusPending,
			})).To(Succeed())

			pending, err = repo.HasPending(5, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeTrue())
		})
	})

	Describe("GrantedContactEmails", func() {
		It("collects emails of the project's stakeholders only", func() {
			seedContact(5, "on-project@acme.com")
			seedContact(6, "elsewhere@acme.com")
			Expect(repo.CreateGrant(&stakeholdermodel.Grant{ProjectID: 10, ContactID: 5})).To(Succeed())
			Expect(repo.CreateGrant(&stakeholdermodel.Grant{ProjectID: 11, ContactID: 6})).To(Succeed())

			emails, err := repo.GrantedContactEmails(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(emails).To(ConsistOf("on-project@acme.com"))
		})

		It("skips soft-deleted contacts", func() {
			seedContact(5, "gone@acme.com")
			Expect(repo.CreateGrant(&stakeholdermodel.Grant{ProjectID: 10, ContactID: 5})).To(Succeed())
			now := time.Now()
			Expect(db.Exec("UPDATE contacts SET deleted_at = ? WHERE id = 5", now).Error).To(Succeed())

			emails, err := repo.GrantedContactEmails(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(emails).To(BeEmpty())
		})
	})

	Describe("DeleteUnusedTokens", func() {
		It("keeps consumed tokens", func() {
			seedContact(5, "c@acme.com")
			now := time.Now()
			Expect(repo.CreateToken(&regtokenmodel.RegistrationToken{
				Token: "live", Email: "c@acme.com", ContactID: 5,
				ExpiresAt: now.Add(time.Hour),
			})).To(Succeed())
			Expect(repo.CreateToken(&regtokenmodel.RegistrationToken{
				Token: "used", Email: "c@acme.com", ContactID: 5,
				ExpiresAt: now.Add(time.Hour), UsedAt: &now,
			})).To(Succeed())

			Expect(repo.DeleteUnusedTokens(5)).To(Succeed())

			var count int64
			Expect(db.Model(&regtokenmodel.RegistrationToken{}).Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))
		})
	})

	Describe("Transaction", func() {
		It("rolls everything back when the callback fails", func() {
			seedContact(5, "c@acme.com")

			boom := errors.New("boom")
			err := repo.Transaction(func(r accessrequest.Repository) error {
				Expect(r.CreateRequest(&model.AccessRequest{
					ContactID: 5, ProjectID: 10,
					RequestedRole: contactmodel.RoleStakeholderL1,
					Status:        model.StatusPending,
				})).To(Succeed())
				return boom
			})
			Expect(err).To(MatchError(boom))

			var count int64
			Expect(db.Model(&model.AccessRequest{}).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})
	})
})
