package services

import (
	"context"

	"helpinghands/internal/models"
	"helpinghands/internal/repositories"
)

// Reference ids are collected per listing and resolved in one query per
// entity type. Ids that no longer resolve stay nil in the view.

func uniqueIDs(ids ...int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func donationViews(ctx context.Context, store repositories.Store, donations []*models.Donation) ([]*models.DonationView, error) {
	userIDs := make([]int64, 0, len(donations))
	campaignIDs := make([]int64, 0, len(donations))
	for _, d := range donations {
		userIDs = append(userIDs, d.DonorID)
		campaignIDs = append(campaignIDs, d.CampaignID)
	}

	users, err := store.Users().GetRefs(ctx, uniqueIDs(userIDs...))
	if err != nil {
		return nil, err
	}
	campaigns, err := store.Campaigns().GetRefs(ctx, uniqueIDs(campaignIDs...))
	if err != nil {
		return nil, err
	}

	views := make([]*models.DonationView, 0, len(donations))
	for _, d := range donations {
		views = append(views, &models.DonationView{
			Donation: *d,
			Donor:    users[d.DonorID],
			Campaign: campaigns[d.CampaignID],
		})
	}
	return views, nil
}

func requestViews(ctx context.Context, store repositories.Store, requests []*models.BeneficiaryRequest) ([]*models.BeneficiaryRequestView, error) {
	userIDs := make([]int64, 0, len(requests)*2)
	campaignIDs := make([]int64, 0, len(requests))
	for _, r := range requests {
		userIDs = append(userIDs, r.BeneficiaryID)
		if r.ReviewedBy != nil {
			userIDs = append(userIDs, *r.ReviewedBy)
		}
		campaignIDs = append(campaignIDs, r.CampaignID)
	}

	users, err := store.Users().GetRefs(ctx, uniqueIDs(userIDs...))
	if err != nil {
		return nil, err
	}
	campaigns, err := store.Campaigns().GetRefs(ctx, uniqueIDs(campaignIDs...))
	if err != nil {
		return nil, err
	}

	views := make([]*models.BeneficiaryRequestView, 0, len(requests))
	for _, r := range requests {
		view := &models.BeneficiaryRequestView{
			BeneficiaryRequest: *r,
			Beneficiary:        users[r.BeneficiaryID],
			Campaign:           campaigns[r.CampaignID],
		}
		if r.ReviewedBy != nil {
			view.Reviewer = users[*r.ReviewedBy]
		}
		views = append(views, view)
	}
	return views, nil
}

func taskViews(ctx context.Context, store repositories.Store, tasks []*models.VolunteerTask) ([]*models.VolunteerTaskView, error) {
	userIDs := make([]int64, 0, len(tasks)*2)
	for _, t := range tasks {
		userIDs = append(userIDs, t.VolunteerID, t.AssignedBy)
	}

	users, err := store.Users().GetRefs(ctx, uniqueIDs(userIDs...))
	if err != nil {
		return nil, err
	}

	views := make([]*models.VolunteerTaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, &models.VolunteerTaskView{
			VolunteerTask: *t,
			Volunteer:     users[t.VolunteerID],
			Assigner:      users[t.AssignedBy],
		})
	}
	return views, nil
}
