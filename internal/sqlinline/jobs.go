package sqlinline

const QInsertJob = `--sql 7c1f2a9e-3b44-4d7a-9c2e-8f1a5b6d0e21
insert into jobs (id, account_id, persona, topic, step, status, payload, max_attempts)
values ($1, $2, $3, $4, $5, $6, $7, $8);
`

const QSelectJobByID = `--sql 1d9a4c55-7e02-4b3f-a8d1-2c6e9f0b4a73
select id, account_id, persona, topic, step, status, payload, error_message,
       attempts, max_attempts, next_retry_at, claimed_at, created_at, updated_at
from jobs
where id = $1;
`

// Claiming selects and stamps rows in one statement so two overlapping stage
// invocations can never receive the same job. A stale claimed_at (crashed
// invocation) expires after the lease interval and the row becomes claimable
// again.
const QClaimOldestPendingJob = `--sql 4b8e6d13-9a27-4f50-b3c4-7d0e2f5a8c96
with next_job as (
    select id
    from jobs
    where step = $1
      and status = $2
      and ($3 = '' or account_id = $3)
      and (claimed_at is null or claimed_at < now() - make_interval(secs => $4))
    order by created_at asc
    for update skip locked
    limit 1
),
claimed as (
    update jobs
    set claimed_at = now(), updated_at = now()
    where id in (select id from next_job)
    returning id, account_id, persona, topic, step, status, payload, error_message,
              attempts, max_attempts, next_retry_at, claimed_at, created_at, updated_at
)
select * from claimed;
`

const QClaimPendingBatch = `--sql e5a09b72-6c31-4e8d-95f0-1b4d7a2c8e64
with next_jobs as (
    select id
    from jobs
    where step = $1
      and status = $2
      and ($3 = '' or account_id = $3)
      and (claimed_at is null or claimed_at < now() - make_interval(secs => $4))
    order by created_at asc
    for update skip locked
    limit $5
),
claimed as (
    update jobs
    set claimed_at = now(), updated_at = now()
    where id in (select id from next_jobs)
    returning id, account_id, persona, topic, step, status, payload, error_message,
              attempts, max_attempts, next_retry_at, claimed_at, created_at, updated_at
)
select * from claimed order by created_at asc;
`

const QAdvanceJob = `--sql 9f3c5e81-2d74-4a06-8b9e-6c0f4d1a7b35
update jobs
set step = $2,
    status = $3,
    payload = $4,
    error_message = '',
    claimed_at = null,
    updated_at = now()
where id = $1;
`

// Failure keeps the step so the owning stage can retry at the same point.
// The next retry window grows exponentially with the attempt count.
const QMarkJobFailed = `--sql 0a7d2f94-5b68-4c13-ae85-3e9c6d0b2f47
update jobs
set status = 'failed',
    error_message = $2,
    attempts = attempts + 1,
    next_retry_at = now() + (interval '1 minute' * power(2, least(attempts, 6))),
    claimed_at = null,
    updated_at = now()
where id = $1;
`

const QResetFailedJobs = `--sql 6e4b8a20-1f53-4d97-b2c6-8a5e0d3f7c19
update jobs
set status = case step
        when 1 then 'pending'
        when 2 then 'frames_pending'
        when 3 then 'assembly_pending'
        else 'upload_pending'
    end,
    error_message = '',
    claimed_at = null,
    updated_at = now()
where status = 'failed'
  and attempts < max_attempts
  and (next_retry_at is null or next_retry_at <= now());
`

const QCountRecentByContentHash = `--sql 3c9f1b68-8e25-4a40-97d3-5f2a0c4e6b81
select count(*)
from jobs
where account_id = $1
  and persona = $2
  and payload->>'content_hash' = $3
  and created_at >= $4;
`
