package tests

import (
	"bytes"
	"testing"

	businessflow "github.com/gigshare/sharelinks/business_flow"
	"github.com/gigshare/sharelinks/repository"
	testingutil "github.com/gigshare/sharelinks/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLinkReportFlow(t *testing.T) {
	runWithDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		linkRepo := repository.NewLinkRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		flow := businessflow.NewLinkReportFlow(linkRepo, testPublicDomain)

		for i := 0; i < 12; i++ {
			_, err := fixtures.CreateTestLink("seller-a")
			require.NoError(t, err)
		}
		_, err := fixtures.CreateTestLink("seller-b")
		require.NoError(t, err)

		t.Run("PaginatesNewestFirst", func(t *testing.T) {
			page1, err := flow.List(ctx, "", 1, 10)
			require.NoError(t, err)
			assert.Len(t, page1.Data, 10)
			assert.Equal(t, int64(13), page1.Pagination.Total)
			assert.Equal(t, int64(2), page1.Pagination.Pages)

			page2, err := flow.List(ctx, "", 2, 10)
			require.NoError(t, err)
			assert.Len(t, page2.Data, 3)
		})

		t.Run("FiltersBySeller", func(t *testing.T) {
			resp, err := flow.List(ctx, "seller-b", 1, 10)
			require.NoError(t, err)
			require.Len(t, resp.Data, 1)
			assert.Equal(t, "seller-b", resp.Data[0].SellerID)
			assert.Contains(t, resp.Data[0].ShortURL, testPublicDomain+"/s/")
		})

		t.Run("RejectsBadPagination", func(t *testing.T) {
			_, err := flow.List(ctx, "", 0, 10)
			assert.True(t, businessflow.IsInvalidPage(err))

			_, err = flow.List(ctx, "", 1, 0)
			assert.True(t, businessflow.IsInvalidPageSize(err))

			_, err = flow.List(ctx, "", 1, 1000)
			assert.True(t, businessflow.IsInvalidPageSize(err))
		})

		t.Run("ExportXLSX", func(t *testing.T) {
			filename, data, err := flow.ExportXLSX(ctx, "")
			require.NoError(t, err)
			assert.Contains(t, filename, ".xlsx")
			require.NotEmpty(t, data)

			xl, err := excelize.OpenReader(bytes.NewReader(data))
			require.NoError(t, err)
			defer xl.Close()

			rows, err := xl.GetRows(xl.GetSheetName(0))
			require.NoError(t, err)
			// Header plus one row per link.
			require.Len(t, rows, 14)
			assert.Equal(t, "seller_id", rows[0][1])
			assert.Equal(t, "credits_earned", rows[0][6])
		})
	})
}
