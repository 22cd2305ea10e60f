package role

import (
	"context"
	"errors"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// joinStore keeps only the role↔permission pairs; the other repository methods are never reached.
type joinStore struct {
	RepositoryAPI
	held      map[int64][]int64
	attached  [][]int64
	detached  [][]int64
	failLoads bool
}

func newJoinStore() *joinStore {
	return &joinStore{held: map[int64][]int64{}}
}

func (s *joinStore) PermissionIDs(_ context.Context, roleID int64) ([]int64, error) {
	if s.failLoads {
		return nil, errors.New("connection reset")
	}
	ids := append([]int64(nil), s.held[roleID]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *joinStore) AttachPermissions(_ context.Context, roleID int64, ids []int64) error {
	s.attached = append(s.attached, ids)
	for _, id := range ids {
		if !contains(s.held[roleID], id) {
			s.held[roleID] = append(s.held[roleID], id)
		}
	}
	return nil
}

func (s *joinStore) DetachPermissions(_ context.Context, roleID int64, ids []int64) error {
	s.detached = append(s.detached, ids)
	kept := s.held[roleID][:0]
	for _, id := range s.held[roleID] {
		if !contains(ids, id) {
			kept = append(kept, id)
		}
	}
	s.held[roleID] = kept
	return nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

var _ = Describe("Permission set arithmetic", func() {
	Describe("diff", func() {
		It("splits the change into additions and removals", func() {
			toAdd, toRemove := diff([]int64{1, 2, 3}, []int64{3, 4, 5})
			Expect(toAdd).To(Equal([]int64{4, 5}))
			Expect(toRemove).To(Equal([]int64{1, 2}))
		})

		It("reports nothing when the sets already match", func() {
			toAdd, toRemove := diff([]int64{2, 1}, []int64{1, 2})
			Expect(toAdd).To(BeEmpty())
			Expect(toRemove).To(BeEmpty())
		})

		It("drops repeated ids from the desired set", func() {
			toAdd, _ := diff(nil, []int64{7, 7, 8, 7})
			Expect(toAdd).To(Equal([]int64{7, 8}))
		})

		It("removes everything when nothing is desired", func() {
			_, toRemove := diff([]int64{1, 2}, nil)
			Expect(toRemove).To(Equal([]int64{1, 2}))
		})
	})

	Describe("intersect", func() {
		It("keeps the order of the first argument without repeats", func() {
			Expect(intersect([]int64{5, 1, 5, 9}, []int64{9, 5})).To(Equal([]int64{5, 9}))
		})

		It("is empty for disjoint sets", func() {
			Expect(intersect([]int64{1}, []int64{2})).To(BeEmpty())
		})
	})
})

var _ = Describe("Join table writes", func() {
	var (
		ctx   context.Context
		store *joinStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newJoinStore()
		store.held[1] = []int64{1, 2}
	})

	Describe("synchronize", func() {
		It("makes the role hold exactly the desired ids", func() {
			Expect(synchronize(ctx, store, 1, []int64{2, 3})).To(Succeed())
			Expect(store.held[1]).To(ConsistOf(int64(2), int64(3)))
			Expect(store.detached).To(Equal([][]int64{{1}}))
			Expect(store.attached).To(Equal([][]int64{{3}}))
		})

		It("is idempotent", func() {
			Expect(synchronize(ctx, store, 1, []int64{3})).To(Succeed())
			Expect(synchronize(ctx, store, 1, []int64{3})).To(Succeed())
			Expect(store.held[1]).To(ConsistOf(int64(3)))
			Expect(store.attached).To(HaveLen(1))
			Expect(store.detached).To(HaveLen(1))
		})

		It("wraps load failures", func() {
			store.failLoads = true
			err := synchronize(ctx, store, 1, []int64{3})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("load permissions of role 1"))
		})
	})

	Describe("grant", func() {
		It("only attaches ids the role does not hold", func() {
			Expect(grant(ctx, store, 1, []int64{2, 4})).To(Succeed())
			Expect(store.attached).To(Equal([][]int64{{4}}))
			Expect(store.held[1]).To(ConsistOf(int64(1), int64(2), int64(4)))
		})

		It("writes nothing when every id is already held", func() {
			Expect(grant(ctx, store, 1, []int64{1, 2})).To(Succeed())
			Expect(store.attached).To(BeEmpty())
		})
	})

	Describe("revoke", func() {
		It("only detaches ids the role holds", func() {
			Expect(revoke(ctx, store, 1, []int64{2, 9})).To(Succeed())
			Expect(store.detached).To(Equal([][]int64{{2}}))
			Expect(store.held[1]).To(ConsistOf(int64(1)))
		})

		It("is a no-op for ids the role does not hold", func() {
			Expect(revoke(ctx, store, 1, []int64{9})).To(Succeed())
			Expect(store.detached).To(BeEmpty())
			Expect(store.held[1]).To(ConsistOf(int64(1), int64(2)))
		})
	})
})
