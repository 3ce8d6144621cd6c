package policy

// listingQuery is the original unparameterized search: the newest 50 listings
// for sale, with set-play tags for scarcity.
const listingQuery = `
  query SearchMomentListings {
    searchMomentListings(
      input: {
        filters: { byForSale: true }
        sortBy: LISTING_DATE_DESC
        pagination: { cursor: "", direction: RIGHT, limit: 50 }
      }
    ) {
      data {
        searchSummary {
          data {
            ... on MomentListings {
              size
              data {
                moment {
                  id
                  flowSerialNumber
                  set { id flowName setVisualId }
                  play {
                    id
                    description
                    stats { playerName teamAtMoment playCategory }
                  }
                  assetPathPrefix
                  circulationCount
                  setPlay { id flowRetired tags { title } }
                }
                lowestAsk
              }
            }
          }
        }
      }
    }
  }
`

// tieredOperation names tieredQuery for the upstream's persisted-operation logs.
const tieredOperation = "SearchMomentListingsByTier"

// tieredQuery filters by tier enum and autograph flag and returns the tier on
// each moment.
const tieredQuery = `
  query SearchMomentListingsByTier($byTiers: [MomentTier!], $byAutographed: Boolean, $limit: Int!) {
    searchMomentListings(
      input: {
        filters: { byForSale: true, byMomentTiers: $byTiers, byAutographed: $byAutographed }
        sortBy: LISTING_DATE_DESC
        pagination: { cursor: "", direction: RIGHT, limit: $limit }
      }
    ) {
      data {
        searchSummary {
          data {
            ... on MomentListings {
              size
              data {
                moment {
                  id
                  tier
                  flowSerialNumber
                  set { id flowName }
                  play {
                    id
                    description
                    stats { playerName teamAtMoment playCategory }
                  }
                  assetPathPrefix
                  circulationCount
                  setPlay { id tags { title } }
                }
                lowestAsk
              }
            }
          }
        }
      }
    }
  }
`

const itemsPath = "data.searchMomentListings.data.searchSummary.data.data"
