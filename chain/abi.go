package chain

// Contract ABIs of the deployed Banyan contract revisions. Each revision is
// described once here and wrapped in a Profile in profile.go.

const offerV0ABI = `[
  {"type":"function","name":"makeOffer","stateMutability":"nonpayable",
   "inputs":[
     {"name":"_executor","type":"address"},
     {"name":"_deal_length_in_blocks","type":"uint256"},
     {"name":"_proof_frequency","type":"uint256"},
     {"name":"_price","type":"uint256"},
     {"name":"_collateral","type":"uint256"},
     {"name":"_denomination","type":"string"},
     {"name":"_file_size","type":"uint256"},
     {"name":"_file_cid","type":"string"},
     {"name":"_file_blake3","type":"string"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getOfferStatus","stateMutability":"view",
   "inputs":[{"name":"_offer_id","type":"uint256"}],
   "outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"getOffer","stateMutability":"view",
   "inputs":[{"name":"_offer_id","type":"uint256"}],
   "outputs":[
     {"name":"offer_status","type":"uint8"},
     {"name":"creator","type":"address"},
     {"name":"executor","type":"address"},
     {"name":"deal_start_block","type":"uint256"},
     {"name":"deal_length_in_blocks","type":"uint256"},
     {"name":"proof_frequency","type":"uint256"},
     {"name":"price","type":"uint256"},
     {"name":"collateral","type":"uint256"},
     {"name":"denomination","type":"string"},
     {"name":"file_size","type":"uint256"},
     {"name":"file_cid","type":"string"},
     {"name":"file_blake3","type":"string"}]}
]`

const ethDealV1ABI = `[
  {"type":"function","name":"proposeDeal","stateMutability":"nonpayable",
   "inputs":[
     {"name":"_executor_address","type":"address"},
     {"name":"_deal_length_in_blocks","type":"uint256"},
     {"name":"_proof_frequency","type":"uint256"},
     {"name":"_bounty","type":"uint256"},
     {"name":"_collateral","type":"uint256"},
     {"name":"_token_denomination","type":"string"},
     {"name":"_file_size","type":"uint256"},
     {"name":"_file_cid","type":"string"},
     {"name":"_file_blake3","type":"string"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getDealStatus","stateMutability":"view",
   "inputs":[{"name":"_deal_id","type":"uint256"}],
   "outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"getDeal","stateMutability":"view",
   "inputs":[{"name":"_deal_id","type":"uint256"}],
   "outputs":[
     {"name":"deal_status","type":"uint8"},
     {"name":"creator_address","type":"address"},
     {"name":"executor_address","type":"address"},
     {"name":"deal_start_block","type":"uint256"},
     {"name":"deal_length_in_blocks","type":"uint256"},
     {"name":"proof_frequency","type":"uint256"},
     {"name":"bounty","type":"uint256"},
     {"name":"collateral","type":"uint256"},
     {"name":"token_denomination","type":"string"},
     {"name":"file_size","type":"uint256"},
     {"name":"file_cid","type":"string"},
     {"name":"file_blake3","type":"string"}]}
]`

const banyanV2ABI = `[
  {"type":"function","name":"createOffer","stateMutability":"nonpayable",
   "inputs":[
     {"name":"_executor_address","type":"address"},
     {"name":"_deal_length_in_blocks","type":"uint256"},
     {"name":"_proof_frequency_in_blocks","type":"uint256"},
     {"name":"_bounty","type":"uint256"},
     {"name":"_collateral","type":"uint256"},
     {"name":"_erc20_token_denomination","type":"string"},
     {"name":"_file_size","type":"uint256"},
     {"name":"_file_cid","type":"string"},
     {"name":"_file_blake3","type":"string"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getDealStatus","stateMutability":"view",
   "inputs":[{"name":"_deal_id","type":"uint256"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getDeal","stateMutability":"view",
   "inputs":[{"name":"_deal_id","type":"uint256"}],
   "outputs":[
     {"name":"deal_status","type":"uint256"},
     {"name":"creator_address","type":"address"},
     {"name":"executor_address","type":"address"},
     {"name":"deal_start_block","type":"uint256"},
     {"name":"deal_length_in_blocks","type":"uint256"},
     {"name":"proof_frequency_in_blocks","type":"uint256"},
     {"name":"bounty","type":"uint256"},
     {"name":"collateral","type":"uint256"},
     {"name":"erc20_token_denomination","type":"string"},
     {"name":"file_size","type":"uint256"},
     {"name":"file_cid","type":"string"},
     {"name":"file_blake3","type":"string"}]}
]`

const banyanV3ABI = `[
  {"type":"function","name":"create","stateMutability":"nonpayable",
   "inputs":[
     {"name":"executorAddress","type":"address"},
     {"name":"dealLengthInBlocks","type":"uint256"},
     {"name":"proofFrequencyInBlocks","type":"uint256"},
     {"name":"bounty","type":"uint256"},
     {"name":"collateral","type":"uint256"},
     {"name":"erc20TokenDenomination","type":"address"},
     {"name":"fileSize","type":"uint256"},
     {"name":"fileCid","type":"string"},
     {"name":"fileBlake3","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"getStatus","stateMutability":"view",
   "inputs":[{"name":"dealId","type":"uint256"}],
   "outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"getDeal","stateMutability":"view",
   "inputs":[{"name":"dealId","type":"uint256"}],
   "outputs":[
     {"name":"dealStatus","type":"uint8"},
     {"name":"creatorAddress","type":"address"},
     {"name":"executorAddress","type":"address"},
     {"name":"dealStartBlock","type":"uint256"},
     {"name":"dealLengthInBlocks","type":"uint256"},
     {"name":"proofFrequencyInBlocks","type":"uint256"},
     {"name":"bounty","type":"uint256"},
     {"name":"collateral","type":"uint256"},
     {"name":"erc20TokenDenomination","type":"address"},
     {"name":"fileSize","type":"uint256"},
     {"name":"fileCid","type":"string"},
     {"name":"fileBlake3","type":"string"}]},
  {"type":"event","name":"DealCreated","anonymous":false,
   "inputs":[
     {"name":"dealId","type":"uint256","indexed":true},
     {"name":"creatorAddress","type":"address","indexed":true},
     {"name":"executorAddress","type":"address","indexed":true}]}
]`
