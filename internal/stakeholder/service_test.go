package stakeholder

import (
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/viaviktor/rfisys/internal"
	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	projectmodel "github.com/viaviktor/rfisys/internal/core/datamodel/project"
	regtokenmodel "github.com/viaviktor/rfisys/internal/core/datamodel/regtoken"
	stakeholdermodel "github.com/viaviktor/rfisys/internal/core/datamodel/stakeholder"
	"github.com/viaviktor/rfisys/pkg/logger"
)

func TestStakeholder(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Stakeholder Module Suite")
}

type mockRepository struct {
	projects map[int64]*projectmodel.Project
	contacts map[int64]*contactmodel.Contact
	grants   []*stakeholdermodel.Grant
	tokens   map[string]*regtokenmodel.RegistrationToken
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		projects: make(map[int64]*projectmodel.Project),
		contacts: make(map[int64]*contactmodel.Contact),
		tokens:   make(map[string]*regtokenmodel.RegistrationToken),
		nextID:   100,
	}
}

func (m *mockRepository) Transaction(fn func(Repository) error) error {
	return fn(m)
}

func (m *mockRepository) GetProject(id int64) (*projectmodel.Project, error) {
	return m.projects[id], nil
}

func (m *mockRepository) GetContact(id int64) (*contactmodel.Contact, error) {
	return m.contacts[id], nil
}

func (m *mockRepository) GetGrant(projectID, contactID int64) (*stakeholdermodel.Grant, error) {
	for _, g := range m.grants {
		if g.ProjectID == projectID && g.ContactID == contactID {
			return g, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) CreateGrant(g *stakeholdermodel.Grant) error {
	m.nextID++
	g.ID = m.nextID
	m.grants = append(m.grants, g)
	return nil
}

func (m *mockRepository) DeleteGrant(projectID, contactID int64) (bool, error) {
	for i, g := range m.grants {
		if g.ProjectID == projectID && g.ContactID == contactID {
			m.grants = append(m.grants[:i], m.grants[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) CountGrants(contactID int64) (int64, error) {
	var count int64
	for _, g := range m.grants {
		if g.ContactID == contactID {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) ListProjectStakeholders(projectID int64) ([]*View, error) {
	var views []*View
	for _, g := range m.grants {
		if g.ProjectID != projectID {
			continue
		}
		c := m.contacts[g.ContactID]
		views = append(views, &View{
			GrantID:          g.ID,
			ProjectID:        g.ProjectID,
			ContactID:        g.ContactID,
			ContactName:      c.Name,
			ContactEmail:     c.Email,
			StakeholderLevel: g.StakeholderLevel,
			AutoApproved:     g.AutoApproved,
			Registered:       c.PasswordHash != nil,
		})
	}
	return views, nil
}

func (m *mockRepository) ResetContactCredentials(contactID int64) error {
	c := m.contacts[contactID]
	c.PasswordHash = nil
	c.RegistrationEligible = false
	c.EmailVerified = false
	return nil
}

func (m *mockRepository) DeleteUnusedTokens(contactID int64) error {
	for k, t := range m.tokens {
		if t.ContactID == contactID && t.UsedAt == nil {
			delete(m.tokens, k)
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }

var _ = ginkgo.Describe("StakeholderService", func() {
	var (
		service *Service
		repo    *mockRepository
		staff   *internal.Principal
	)

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		repo.projects[10] = &projectmodel.Project{ID: 10, ClientID: 1, Name: "North Tower"}
		repo.projects[11] = &projectmodel.Project{ID: 11, ClientID: 1, Name: "Garage"}
		repo.projects[20] = &projectmodel.Project{ID: 20, ClientID: 2, Name: "South Annex"}

		repo.contacts[5] = &contactmodel.Contact{
			ID: 5, ClientID: 1, Name: "Registered", Email: "reg@acme.com",
			PasswordHash: strPtr("hash"), EmailVerified: true,
			RegistrationEligible: true, Active: true,
		}
		repo.contacts[6] = &contactmodel.Contact{
			ID: 6, ClientID: 2, Name: "Foreign", Email: "other@elsewhere.com", Active: true,
		}

		staff = &internal.Principal{
			ID: 1, Email: "pm@rfisys.com", Role: "USER", UserType: internal.PrincipalInternal,
		}

		service = NewService(repo, logger.L())
	})

	ginkgo.Describe("Add", func() {
		ginkgo.It("creates a grant with default level 1 and user provenance", func() {
			grant, err := service.Add(10, AddDTO{ContactID: 5}, staff)
			gomega.Expect(err).To(gomega.BeNil())
			gomega.Expect(grant.StakeholderLevel).To(gomega.Equal(1))
			gomega.Expect(grant.AddedByUserID).To(gomega.HaveValue(gomega.Equal(staff.ID)))
			gomega.Expect(grant.AddedByContactID).To(gomega.BeNil())
		})

		ginkgo.It("records contact provenance when a stakeholder invites", func() {
			l1 := &internal.Principal{
				ID: 5, Role: contactmodel.RoleStakeholderL1,
				UserType: internal.PrincipalStakeholder, ProjectAccess: []int64{10},
			}
			repo.contacts[7] = &contactmodel.Contact{
				ID: 7, ClientID: 1, Name: "Peer", Email: "peer@acme.com", Active: true,
			}

			grant, err := service.Add(10, AddDTO{ContactID: 7, StakeholderLevel: 2}, l1)
			gomega.Expect(err).To(gomega.BeNil())
			gomega.Expect(grant.StakeholderLevel).To(gomega.Equal(2))
			gomega.Expect(grant.AddedByContactID).To(gomega.HaveValue(gomega.Equal(l1.ID)))
			gomega.Expect(grant.AddedByUserID).To(gomega.BeNil())
		})

		ginkgo.It("defaults a stakeholder's invite to level 2", func() {
			l1 := &internal.Principal{
				ID: 5, Role: contactmodel.RoleStakeholderL1,
				UserType: internal.PrincipalStakeholder, ProjectAccess: []int64{10},
			}
			repo.contacts[7] = &contactmodel.Contact{
				ID: 7, ClientID: 1, Name: "Peer", Email: "peer@acme.com", Active: true,
			}

			grant, err := service.Add(10, AddDTO{ContactID: 7}, l1)
			gomega.Expect(err).To(gomega.BeNil())
			gomega.Expect(grant.StakeholderLevel).To(gomega.Equal(2))
		})

		ginkgo.It("forbids a stakeholder from granting level 1", func() {
			l1 := &internal.Principal{
				ID: 5, Role: contactmodel.RoleStakeholderL1,
				UserType: internal.PrincipalStakeholder, ProjectAccess: []int64{10},
			}
			repo.contacts[7] = &contactmodel.Contact{
				ID: 7, ClientID: 1, Name: "Peer", Email: "peer@acme.com", Active: true,
			}

			_, err := service.Add(10, AddDTO{ContactID: 7, StakeholderLevel: 1}, l1)
			gomega.Expect(err).To(gomega.Equal(internal.ErrForbidden))
			gomega.Expect(repo.grants).To(gomega.BeEmpty())
		})

		ginkgo.It("rejects a contact from a different client", func() {
			_, err := service.Add(10, AddDTO{ContactID: 6}, staff)
			gomega.Expect(err).To(gomega.Equal(internal.ErrCrossClient))
		})

		ginkgo.It("rejects a duplicate grant", func() {
			_, err := service.Add(10, AddDTO{ContactID: 5}, staff)
			gomega.Expect(err).To(gomega.BeNil())

			_, err = service.Add(10, AddDTO{ContactID: 5}, staff)
			gomega.Expect(err).To(gomega.Equal(internal.ErrGrantExists))
		})

		ginkgo.It("rejects a stakeholder without access to the project", func() {
			l1 := &internal.Principal{
				ID: 5, Role: contactmodel.RoleStakeholderL1,
				UserType: internal.PrincipalStakeholder, ProjectAccess: []int64{20},
			}
			_, err := service.Add(10, AddDTO{ContactID: 5}, l1)
			gomega.Expect(err).To(gomega.Equal(internal.ErrForbidden))
		})

		ginkgo.It("rejects an L2 stakeholder", func() {
			l2 := &internal.Principal{
				ID: 5, Role: contactmodel.RoleStakeholderL2,
				UserType: internal.PrincipalStakeholder, ProjectAccess: []int64{10},
			}
			_, err := service.Add(10, AddDTO{ContactID: 5}, l2)
			gomega.Expect(err).To(gomega.Equal(internal.ErrForbidden))
		})

		ginkgo.It("rejects an unknown project", func() {
			_, err := service.Add(999, AddDTO{ContactID: 5}, staff)
			gomega.Expect(err).To(gomega.Equal(internal.ErrProjectNotFound))
		})
	})

	ginkgo.Describe("Remove", func() {
		ginkgo.BeforeEach(func() {
			_, err := service.Add(10, AddDTO{ContactID: 5}, staff)
			gomega.Expect(err).To(gomega.BeNil())
			repo.tokens["live"] = &regtokenmodel.RegistrationToken{
				Token: "live", ContactID: 5, Email: "reg@acme.com",
				ExpiresAt: time.Now().Add(time.Hour),
			}
		})

		ginkgo.It("resets credentials when the last grant anywhere is removed", func() {
			err := service.Remove(10, 5, staff)
			gomega.Expect(err).To(gomega.BeNil())

			c := repo.contacts[5]
			gomega.Expect(c.PasswordHash).To(gomega.BeNil())
			gomega.Expect(c.RegistrationEligible).To(gomega.BeFalse())
			gomega.Expect(c.EmailVerified).To(gomega.BeFalse())
			gomega.Expect(repo.tokens).To(gomega.BeEmpty())
		})

		ginkgo.It("leaves the contact untouched while grants remain elsewhere", func() {
			_, err := service.Add(11, AddDTO{ContactID: 5}, staff)
			gomega.Expect(err).To(gomega.BeNil())

			err = service.Remove(10, 5, staff)
			gomega.Expect(err).To(gomega.BeNil())

			c := repo.contacts[5]
			gomega.Expect(c.PasswordHash).NotTo(gomega.BeNil())
			gomega.Expect(c.RegistrationEligible).To(gomega.BeTrue())
			gomega.Expect(repo.tokens).To(gomega.HaveKey("live"))
		})

		ginkgo.It("preserves consumed tokens during teardown", func() {
			now := time.Now()
			repo.tokens["used"] = &regtokenmodel.RegistrationToken{
				Token: "used", ContactID: 5, UsedAt: &now,
			}

			err := service.Remove(10, 5, staff)
			gomega.Expect(err).To(gomega.BeNil())
			gomega.Expect(repo.tokens).To(gomega.HaveKey("used"))
			gomega.Expect(repo.tokens).NotTo(gomega.HaveKey("live"))
		})

		ginkgo.It("fails when no grant exists", func() {
			err := service.Remove(11, 5, staff)
			gomega.Expect(err).To(gomega.Equal(internal.ErrGrantNotFound))
		})
	})

	ginkgo.Describe("List", func() {
		ginkgo.BeforeEach(func() {
			_, err := service.Add(10, AddDTO{ContactID: 5}, staff)
			gomega.Expect(err).To(gomega.BeNil())
		})

		ginkgo.It("returns the project's stakeholders with registration state", func() {
			views, err := service.List(10, staff)
			gomega.Expect(err).To(gomega.BeNil())
			gomega.Expect(views).To(gomega.HaveLen(1))
			gomega.Expect(views[0].ContactEmail).To(gomega.Equal("reg@acme.com"))
			gomega.Expect(views[0].Registered).To(gomega.BeTrue())
		})

		ginkgo.It("lets a granted stakeholder view its own project's roster", func() {
			clientID := int64(1)
			peer := &internal.Principal{
				ID: 5, Role: contactmodel.RoleStakeholderL1,
				UserType: internal.PrincipalStakeholder, ClientID: &clientID,
				ProjectAccess: []int64{10},
			}
			views, err := service.List(10, peer)
			gomega.Expect(err).To(gomega.BeNil())
			gomega.Expect(views).To(gomega.HaveLen(1))
		})

		ginkgo.It("allows a stakeholder only within its grant set", func() {
			outsider := &internal.Principal{
				ID: 6, Role: contactmodel.RoleStakeholderL1,
				UserType: internal.PrincipalStakeholder, ProjectAccess: []int64{20},
			}
			_, err := service.List(10, outsider)
			gomega.Expect(err).To(gomega.Equal(internal.ErrForbidden))
		})
	})
})
