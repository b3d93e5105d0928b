package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/viaviktor/rfisys/internal"
	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	usermodel "github.com/viaviktor/rfisys/internal/core/datamodel/user"
)

var _ = ginkgo.Describe("Permissions", func() {
	var (
		admin    *internal.Principal
		staff    *internal.Principal
		l1       *internal.Principal
		l2       *internal.Principal
		clientID = int64(100)
	)

	ginkgo.BeforeEach(func() {
		admin = &internal.Principal{ID: 1, Role: usermodel.RoleAdmin, UserType: internal.PrincipalInternal}
		staff = &internal.Principal{ID: 2, Role: usermodel.RoleUser, UserType: internal.PrincipalInternal}
		l1 = &internal.Principal{
			ID: 10, Role: contactmodel.RoleStakeholderL1, UserType: internal.PrincipalStakeholder,
			ClientID: &clientID, ProjectAccess: []int64{200},
		}
		l2 = &internal.Principal{
			ID: 11, Role: contactmodel.RoleStakeholderL2, UserType: internal.PrincipalStakeholder,
			ClientID: &clientID, ProjectAccess: []int64{200, 201},
		}
	})

	ginkgo.Describe("CanAccessProject", func() {
		ginkgo.It("should allow internal users on any project", func() {
			gomega.Expect(CanAccessProject(staff, 999)).To(gomega.BeTrue())
		})

		ginkgo.It("should limit stakeholders to their grant set", func() {
			gomega.Expect(CanAccessProject(l1, 200)).To(gomega.BeTrue())
			gomega.Expect(CanAccessProject(l1, 201)).To(gomega.BeFalse())
		})

		ginkgo.It("should deny a nil principal", func() {
			gomega.Expect(CanAccessProject(nil, 200)).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("CanInvite", func() {
		ginkgo.It("should allow internal users and L1 stakeholders", func() {
			gomega.Expect(CanInvite(staff)).To(gomega.BeTrue())
			gomega.Expect(CanInvite(l1)).To(gomega.BeTrue())
		})

		ginkgo.It("should deny L2 stakeholders", func() {
			gomega.Expect(CanInvite(l2)).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("CanAdminister", func() {
		ginkgo.It("should allow only internal admins", func() {
			gomega.Expect(CanAdminister(admin)).To(gomega.BeTrue())
			gomega.Expect(CanAdminister(staff)).To(gomega.BeFalse())
			gomega.Expect(CanAdminister(l1)).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("CanViewClient", func() {
		ginkgo.It("should scope stakeholders to their own client", func() {
			gomega.Expect(CanViewClient(l1, clientID)).To(gomega.BeTrue())
			gomega.Expect(CanViewClient(l1, clientID+1)).To(gomega.BeFalse())
			gomega.Expect(CanViewClient(staff, clientID+1)).To(gomega.BeTrue())
		})
	})
})
