package registration

import (
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/viaviktor/rfisys/internal"
	"github.com/viaviktor/rfisys/internal/auth"
	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	projectmodel "github.com/viaviktor/rfisys/internal/core/datamodel/project"
	regtokenmodel "github.com/viaviktor/rfisys/internal/core/datamodel/regtoken"
	"github.com/viaviktor/rfisys/internal/core/events"
	"github.com/viaviktor/rfisys/pkg/logger"
)

func TestRegistration(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Registration Module Suite")
}

type mockRepository struct {
	contacts map[int64]*contactmodel.Contact
	projects map[int64]*projectmodel.Project
	tokens   map[string]*regtokenmodel.RegistrationToken
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		contacts: make(map[int64]*contactmodel.Contact),
		projects: make(map[int64]*projectmodel.Project),
		tokens:   make(map[string]*regtokenmodel.RegistrationToken),
	}
}

func (m *mockRepository) Transaction(fn func(Repository) error) error {
	return fn(m)
}

func (m *mockRepository) GetContact(id int64) (*contactmodel.Contact, error) {
	return m.contacts[id], nil
}

func (m *mockRepository) GetProject(id int64) (*projectmodel.Project, error) {
	return m.projects[id], nil
}

func (m *mockRepository) GetToken(token string) (*regtokenmodel.RegistrationToken, error) {
	return m.tokens[token], nil
}

func (m *mockRepository) DeleteUnusedTokens(contactID int64) error {
	for k, t := range m.tokens {
		if t.ContactID == contactID && t.UsedAt == nil {
			delete(m.tokens, k)
		}
	}
	return nil
}

func (m *mockRepository) CreateToken(t *regtokenmodel.RegistrationToken) error {
	m.tokens[t.Token] = t
	return nil
}

func (m *mockRepository) ConsumeToken(token string, at time.Time) (bool, error) {
	t, ok := m.tokens[token]
	if !ok || t.UsedAt != nil {
		return false, nil
	}
	t.UsedAt = &at
	return true, nil
}

func (m *mockRepository) ActivateContact(contactID int64, passwordHash string) error {
	c := m.contacts[contactID]
	c.PasswordHash = &passwordHash
	c.EmailVerified = true
	c.RegistrationEligible = true
	return nil
}

var _ = ginkgo.Describe("RegistrationService", func() {
	var (
		service *Service
		repo    *mockRepository
		inviter *internal.Principal
	)

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		repo.projects[10] = &projectmodel.Project{ID: 10, ClientID: 1, Name: "North Tower"}
		repo.contacts[5] = &contactmodel.Contact{
			ID: 5, ClientID: 1, Name: "Invitee", Email: "invitee@acme.com",
			RegistrationEligible: true, Active: true,
		}

		inviter = &internal.Principal{
			ID: 1, Email: "pm@rfisys.com", Role: "USER", UserType: internal.PrincipalInternal,
		}

		bus := events.NewEventBus(logger.L())
		service = NewService(repo, bus, 7*24*time.Hour, 4, logger.L())
	})

	ginkgo.Describe("Issue", func() {
		ginkgo.It("mints a token bound to the contact's email and projects", func() {
			token, err := service.Issue(IssueDTO{ContactID: 5, ProjectIDs: []int64{10}}, inviter)
			gomega.Expect(err).To(gomega.BeNil())
			gomega.Expect(token.Token).To(gomega.HaveLen(64))
			gomega.Expect(token.Email).To(gomega.Equal("invitee@acme.com"))
			gomega.Expect([]int64(token.ProjectIDs)).To(gomega.Equal([]int64{10}))
			gomega.Expect(token.TokenType).To(gomega.Equal(regtokenmodel.TypeInvitation))
			gomega.Expect(token.ExpiresAt).To(gomega.BeTemporally(">", time.Now().Add(6*24*time.Hour)))
		})

		ginkgo.It("supersedes the contact's prior unused tokens", func() {
			first, err := service.Issue(IssueDTO{ContactID: 5, ProjectIDs: []int64{10}}, inviter)
			gomega.Expect(err).To(gomega.BeNil())

			second, err := service.Issue(IssueDTO{ContactID: 5, ProjectIDs: []int64{10}}, inviter)
			gomega.Expect(err).To(gomega.BeNil())

			gomega.Expect(repo.tokens).NotTo(gomega.HaveKey(first.Token))
			gomega.Expect(repo.tokens).To(gomega.HaveKey(second.Token))
			gomega.Expect(repo.tokens).To(gomega.HaveLen(1))
		})

		ginkgo.It("rejects a stakeholder below level 1", func() {
			l2 := &internal.Principal{
				ID: 9, Role: contactmodel.RoleStakeholderL2, UserType: internal.PrincipalStakeholder,
			}
			_, err := service.Issue(IssueDTO{ContactID: 5}, l2)
			gomega.Expect(err).To(gomega.Equal(internal.ErrForbidden))
		})

		ginkgo.It("rejects an unknown contact", func() {
			_, err := service.Issue(IssueDTO{ContactID: 999}, inviter)
			gomega.Expect(err).To(gomega.Equal(internal.ErrContactNotFound))
		})

		ginkgo.It("lets an L1 invite a contact of its own client to its own projects", func() {
			clientID := int64(1)
			l1 := &internal.Principal{
				ID: 8, Role: contactmodel.RoleStakeholderL1,
				UserType: internal.PrincipalStakeholder, ClientID: &clientID,
				ProjectAccess: []int64{10},
			}
			token, err := service.Issue(IssueDTO{ContactID: 5, ProjectIDs: []int64{10}}, l1)
			gomega.Expect(err).To(gomega.BeNil())
			gomega.Expect(token.ContactID).To(gomega.Equal(int64(5)))
		})

		ginkgo.It("forbids an L1 from inviting another client's contact", func() {
			repo.contacts[9] = &contactmodel.Contact{
				ID: 9, ClientID: 2, Name: "Foreign", Email: "other@elsewhere.com", Active: true,
			}
			clientID := int64(1)
			l1 := &internal.Principal{
				ID: 8, Role: contactmodel.RoleStakeholderL1,
				UserType: internal.PrincipalStakeholder, ClientID: &clientID,
				ProjectAccess: []int64{10},
			}
			_, err := service.Issue(IssueDTO{ContactID: 9, ProjectIDs: []int64{999}}, l1)
			gomega.Expect(err).To(gomega.Equal(internal.ErrForbidden))
			gomega.Expect(repo.tokens).To(gomega.BeEmpty())
		})

		ginkgo.It("forbids an L1 from binding projects outside its grant set", func() {
			clientID := int64(1)
			l1 := &internal.Principal{
				ID: 8, Role: contactmodel.RoleStakeholderL1,
				UserType: internal.PrincipalStakeholder, ClientID: &clientID,
				ProjectAccess: []int64{10},
			}
			_, err := service.Issue(IssueDTO{ContactID: 5, ProjectIDs: []int64{10, 999}}, l1)
			gomega.Expect(err).To(gomega.Equal(internal.ErrForbidden))
			gomega.Expect(repo.tokens).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("Redeem", func() {
		var token *regtokenmodel.RegistrationToken

		ginkgo.BeforeEach(func() {
			var err error
			token, err = service.Issue(IssueDTO{ContactID: 5, ProjectIDs: []int64{10}}, inviter)
			gomega.Expect(err).To(gomega.BeNil())
		})

		redeem := func(tokenValue, email string) (*contactmodel.Contact, error) {
			return service.Redeem(RedeemDTO{
				Token:    tokenValue,
				Email:    email,
				Password: "a-strong-password",
			})
		}

		ginkgo.It("activates the contact and consumes the token", func() {
			contact, err := redeem(token.Token, "invitee@acme.com")
			gomega.Expect(err).To(gomega.BeNil())

			gomega.Expect(contact.PasswordHash).NotTo(gomega.BeNil())
			gomega.Expect(contact.EmailVerified).To(gomega.BeTrue())
			gomega.Expect(contact.RegistrationEligible).To(gomega.BeTrue())
			gomega.Expect(auth.VerifyPassword(*contact.PasswordHash, "a-strong-password")).To(gomega.Succeed())

			gomega.Expect(repo.tokens[token.Token].UsedAt).NotTo(gomega.BeNil())
		})

		ginkgo.It("matches the supplied email case-insensitively", func() {
			_, err := redeem(token.Token, "Invitee@ACME.com")
			gomega.Expect(err).To(gomega.BeNil())
		})

		ginkgo.It("fails with TokenNotFound for an unknown token", func() {
			_, err := redeem("deadbeef", "invitee@acme.com")
			gomega.Expect(err).To(gomega.Equal(internal.ErrTokenNotFound))
		})

		ginkgo.It("fails with TokenExpired past the deadline", func() {
			repo.tokens[token.Token].ExpiresAt = time.Now().Add(-time.Minute)
			_, err := redeem(token.Token, "invitee@acme.com")
			gomega.Expect(err).To(gomega.Equal(internal.ErrTokenExpired))
		})

		ginkgo.It("fails with TokenAlreadyUsed on a second redemption", func() {
			_, err := redeem(token.Token, "invitee@acme.com")
			gomega.Expect(err).To(gomega.BeNil())

			_, err = redeem(token.Token, "invitee@acme.com")
			gomega.Expect(err).To(gomega.Equal(internal.ErrTokenAlreadyUsed))
		})

		ginkgo.It("fails with EmailMismatch for a different identity", func() {
			_, err := redeem(token.Token, "attacker@evil.com")
			gomega.Expect(err).To(gomega.Equal(internal.ErrTokenEmailMismatch))
		})

		ginkgo.It("rejects a short password", func() {
			_, err := service.Redeem(RedeemDTO{
				Token: token.Token, Email: "invitee@acme.com", Password: "short",
			})
			gomega.Expect(err).NotTo(gomega.BeNil())
			gomega.Expect(repo.tokens[token.Token].UsedAt).To(gomega.BeNil())
		})
	})

	ginkgo.Describe("Validate", func() {
		ginkgo.It("returns the token while it is live", func() {
			token, err := service.Issue(IssueDTO{ContactID: 5, ProjectIDs: []int64{10}}, inviter)
			gomega.Expect(err).To(gomega.BeNil())

			got, err := service.Validate(token.Token)
			gomega.Expect(err).To(gomega.BeNil())
			gomega.Expect(got.Email).To(gomega.Equal("invitee@acme.com"))
		})

		ginkgo.It("reports a consumed token", func() {
			token, err := service.Issue(IssueDTO{ContactID: 5, ProjectIDs: []int64{10}}, inviter)
			gomega.Expect(err).To(gomega.BeNil())
			now := time.Now()
			repo.tokens[token.Token].UsedAt = &now

			_, err = service.Validate(token.Token)
			gomega.Expect(err).To(gomega.Equal(internal.ErrTokenAlreadyUsed))
		})
	})
})
